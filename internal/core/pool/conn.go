package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/shardus/lib-net/internal/core/framing"
	"github.com/shardus/lib-net/internal/core/metrics"
)

// Conn 到单个目的地的出站连接
//
// 同一 Conn 上的写入串行执行，帧之间不会交错。
type Conn struct {
	pool    *Pool
	key     string
	address string
	port    int

	// writeMu 串行化写入与拨号
	writeMu sync.Mutex

	// sockMu 保护 sock 与 closed，持有时间很短，Close 不会被写入阻塞
	sockMu sync.Mutex
	sock   net.Conn
	closed bool
}

func newConn(p *Pool, key, address string, port int) *Conn {
	return &Conn{pool: p, key: key, address: address, port: port}
}

// Send 写出一帧
//
// 未连接时先拨号。写入失败时丢弃套接字、重连并重写一次；
// 仍失败则移出连接池并返回 ErrWrite。
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	sock, err := c.socket(ctx)
	if err != nil {
		return err
	}

	werr := c.write(ctx, sock, payload)
	if werr == nil {
		c.pool.metrics.FrameSent(len(payload))
		return nil
	}
	if c.isClosed() {
		return ErrConnClosed
	}

	logger.DebugContext(ctx, "写入失败，重连一次", "dest", c.key, "err", werr)
	c.detach(sock)

	sock, err = c.socket(ctx)
	if err != nil {
		return err
	}
	if werr = c.write(ctx, sock, payload); werr != nil {
		c.detach(sock)
		c.pool.metrics.SendError("write")
		c.pool.remove(c, metrics.EvictError)
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.key, werr)
	}
	c.pool.metrics.FrameSent(len(payload))
	return nil
}

// socket 返回当前套接字，必要时拨号。调用方持有 writeMu。
func (c *Conn) socket(ctx context.Context) (net.Conn, error) {
	c.sockMu.Lock()
	if c.closed {
		c.sockMu.Unlock()
		return nil, ErrConnClosed
	}
	if c.sock != nil {
		sock := c.sock
		c.sockMu.Unlock()
		return sock, nil
	}
	c.sockMu.Unlock()

	sock, err := c.pool.dialer.DialContext(ctx, "tcp", c.key)
	if err != nil {
		c.pool.metrics.SendError("connect")
		c.pool.remove(c, metrics.EvictError)
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, c.key, err)
	}
	if tcp, ok := sock.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	c.sockMu.Lock()
	if c.closed {
		c.sockMu.Unlock()
		sock.Close()
		return nil, ErrConnClosed
	}
	c.sock = sock
	// 在 sockMu 内登记，保证先于 Pool.Close 的 Wait
	c.pool.watchers.Add(1)
	c.sockMu.Unlock()

	c.pool.metrics.Dialed()
	go c.watch(sock)

	logger.DebugContext(ctx, "出站连接已建立", "dest", c.key, "local", sock.LocalAddr().String())
	return sock, nil
}

func (c *Conn) write(ctx context.Context, sock net.Conn, payload []byte) error {
	deadline := time.Time{}
	if c.pool.cfg.WriteTimeout > 0 {
		deadline = time.Now().Add(c.pool.cfg.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := sock.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return framing.WriteFrame(sock, payload)
}

// watch 监测对端关闭
//
// 对端不应在出站连接上发送数据，收到的字节直接丢弃。
func (c *Conn) watch(sock net.Conn) {
	defer c.pool.watchers.Done()

	buf := make([]byte, 512)
	for {
		if _, err := sock.Read(buf); err != nil {
			if !c.detach(sock) {
				// 已被替换或主动关闭
				return
			}
			reason := metrics.EvictError
			if errors.Is(err, io.EOF) {
				reason = metrics.EvictPeerClosed
			}
			logger.Debug("出站连接断开", "dest", c.key, "reason", reason, "err", err)
			c.pool.remove(c, reason)
			return
		}
	}
}

// detach 若 sock 仍是当前套接字则解除并关闭，返回是否解除
func (c *Conn) detach(sock net.Conn) bool {
	c.sockMu.Lock()
	current := c.sock == sock
	if current {
		c.sock = nil
	}
	c.sockMu.Unlock()

	sock.Close()
	return current
}

// Close 关闭连接
//
// 不等待进行中的写入；写入会因套接字关闭而失败并返回 ErrConnClosed。
func (c *Conn) Close() error {
	c.sockMu.Lock()
	c.closed = true
	sock := c.sock
	c.sock = nil
	c.sockMu.Unlock()

	if sock != nil {
		return sock.Close()
	}
	return nil
}

func (c *Conn) isClosed() bool {
	c.sockMu.Lock()
	defer c.sockMu.Unlock()
	return c.closed
}
