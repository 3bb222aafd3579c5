package listener

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardus/lib-net/internal/core/framing"
	"github.com/shardus/lib-net/internal/core/metrics"
	"github.com/shardus/lib-net/pkg/types"
)

type received struct {
	payload []byte
	remote  types.RemoteSender
}

func startListener(t *testing.T, maxFrame uint32) (*Listener, chan received, *metrics.Metrics) {
	t.Helper()
	ch := make(chan received, 256)
	m := metrics.New()
	ln, err := Listen(context.Background(), Config{Address: "127.0.0.1", MaxFrameSize: maxFrame},
		func(payload []byte, remote types.RemoteSender) {
			ch <- received{payload: payload, remote: remote}
		}, m)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln, ch, m
}

func dial(t *testing.T, ln *Listener) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, ch chan received) received {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no frame dispatched")
		return received{}
	}
}

func TestListener_EphemeralPort(t *testing.T) {
	ln, _, _ := startListener(t, 0)
	assert.NotZero(t, ln.Port())
	assert.False(t, ln.closed.Load())
}

func TestListener_DispatchInOrder(t *testing.T) {
	ln, ch, m := startListener(t, 0)
	conn := dial(t, ln)

	var stream []byte
	for i := 0; i < 20; i++ {
		stream = framing.AppendFrame(stream, []byte(fmt.Sprintf("frame-%d", i)))
	}
	// 逐字节写入，验证跨读取的拼帧
	for i := range stream {
		_, err := conn.Write(stream[i : i+1])
		require.NoError(t, err)
	}

	local := conn.LocalAddr().(*net.TCPAddr)
	for i := 0; i < 20; i++ {
		r := next(t, ch)
		assert.Equal(t, fmt.Sprintf("frame-%d", i), string(r.payload))
		assert.Equal(t, local.Port, r.remote.Port)
		assert.Equal(t, "127.0.0.1", r.remote.Address)
	}
	assert.Equal(t, uint64(20), m.Snapshot().Received)
}

func TestListener_DecodeErrorClosesOnlyThatConnection(t *testing.T) {
	ln, ch, _ := startListener(t, 16)

	bad := dial(t, ln)
	good := dial(t, ln)

	_, err := bad.Write(framing.Encode(make([]byte, 17)))
	require.NoError(t, err)

	// 出错的连接被关闭
	_ = bad.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = bad.Read(make([]byte, 1))
	assert.Error(t, err)

	// 其他连接不受影响
	_, err = good.Write(framing.Encode([]byte("still fine")))
	require.NoError(t, err)
	assert.Equal(t, "still fine", string(next(t, ch).payload))
}

func TestListener_ConcurrentConnections(t *testing.T) {
	ln, ch, _ := startListener(t, 0)

	const conns, perConn = 8, 25
	var wg sync.WaitGroup
	for c := 0; c < conns; c++ {
		conn := dial(t, ln)
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perConn; i++ {
				assert.NoError(t, framing.WriteFrame(conn, []byte(fmt.Sprintf("%d-%d", c, i))))
			}
		}(c)
	}
	wg.Wait()

	// 每个连接内部有序
	lastSeen := make(map[int]int)
	for i := 0; i < conns*perConn; i++ {
		var c, n int
		_, err := fmt.Sscanf(string(next(t, ch).payload), "%d-%d", &c, &n)
		require.NoError(t, err)
		if prev, ok := lastSeen[c]; ok {
			assert.Equal(t, prev+1, n)
		} else {
			assert.Equal(t, 0, n)
		}
		lastSeen[c] = n
	}
}

func TestListener_CloseReleasesPort(t *testing.T) {
	ln, _, _ := startListener(t, 0)
	conn := dial(t, ln)
	port := ln.Port()

	require.Eventually(t, func() bool { return ln.ConnCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ln.Close())
	require.NoError(t, ln.Close())
	assert.True(t, ln.closed.Load())
	assert.Zero(t, ln.ConnCount())

	// 已接受的连接被关闭
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := conn.Read(make([]byte, 1))
	assert.Error(t, err)

	// 端口可以重新绑定
	again, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	again.Close()
}

func TestListener_PanicInDispatchKeepsConnection(t *testing.T) {
	ch := make(chan string, 4)
	ln, err := Listen(context.Background(), Config{Address: "127.0.0.1"},
		func(payload []byte, _ types.RemoteSender) {
			if string(payload) == "boom" {
				panic("handler failure")
			}
			ch <- string(payload)
		}, nil)
	require.NoError(t, err)
	defer ln.Close()

	conn := dial(t, ln)
	require.NoError(t, framing.WriteFrame(conn, []byte("boom")))
	require.NoError(t, framing.WriteFrame(conn, []byte("after")))

	select {
	case s := <-ch:
		assert.Equal(t, "after", s)
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not survive the panic")
	}
}

func TestListen_BindError(t *testing.T) {
	ln, _, _ := startListener(t, 0)

	_, err := Listen(context.Background(), Config{Address: "127.0.0.1", Port: ln.Port()},
		func([]byte, types.RemoteSender) {}, nil)
	assert.Error(t, err)
}
