package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shardus/lib-net/internal/core/framing"
	"github.com/shardus/lib-net/internal/core/metrics"
	"github.com/shardus/lib-net/pkg/lib/log"
	"github.com/shardus/lib-net/pkg/types"
)

var logger = log.Logger("core/listener")

const readBufferSize = 64 * 1024

// ErrClosed 监听器已关闭
var ErrClosed = errors.New("listener: closed")

// DispatchFunc 处理一个完整的帧负载
type DispatchFunc func(payload []byte, remote types.RemoteSender)

// Config 监听配置
type Config struct {
	// Address 监听地址
	Address string

	// Port 监听端口，0 表示由系统分配
	Port int

	// MaxFrameSize 单帧最大长度
	MaxFrameSize uint32
}

// Listener TCP 监听器
type Listener struct {
	cfg      Config
	dispatch DispatchFunc
	metrics  *metrics.Metrics

	ln     *net.TCPListener
	closed atomic.Bool

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	wg sync.WaitGroup
}

// Listen 绑定地址并开始接受连接
//
// 返回时端口已绑定。
func Listen(ctx context.Context, cfg Config, dispatch DispatchFunc, m *metrics.Metrics) (*Listener, error) {
	if dispatch == nil {
		return nil, fmt.Errorf("listener: nil dispatch func")
	}

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("监听失败: %w", err)
	}
	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, fmt.Errorf("不是 TCP 监听器")
	}

	ln := &Listener{
		cfg:      cfg,
		dispatch: dispatch,
		metrics:  m,
		ln:       tcpListener,
		conns:    make(map[net.Conn]struct{}),
	}

	ln.wg.Add(1)
	go ln.serve()

	logger.Info("开始监听", "addr", ln.Addr().String())
	return ln, nil
}

// Addr 返回实际监听地址
func (l *Listener) Addr() *net.TCPAddr {
	return l.ln.Addr().(*net.TCPAddr)
}

// Port 返回实际监听端口
func (l *Listener) Port() int {
	return l.Addr().Port
}

// ConnCount 返回当前入站连接数
func (l *Listener) ConnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Close 停止接受连接，关闭所有入站连接，等待读协程退出
//
// 会等待正在执行的分发函数返回，不要在分发函数内调用。
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := l.ln.Close()

	l.mu.Lock()
	for conn := range l.conns {
		conn.Close()
	}
	l.mu.Unlock()

	l.wg.Wait()
	logger.Info("停止监听", "addr", l.Addr().String())
	return err
}

func (l *Listener) serve() {
	defer l.wg.Done()

	var backoff time.Duration
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.closed.Load() {
				return
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			logger.Warn("接受连接失败", "err", err, "retryIn", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
			_ = tcp.SetKeepAlive(true)
		}

		if !l.track(conn) {
			conn.Close()
			return
		}
		l.wg.Add(1)
		go l.handle(conn)
	}
}

func (l *Listener) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.Load() {
		return false
	}
	l.conns[conn] = struct{}{}
	return true
}

func (l *Listener) untrack(conn net.Conn) {
	l.mu.Lock()
	delete(l.conns, conn)
	l.mu.Unlock()
}

func (l *Listener) handle(conn net.Conn) {
	defer l.wg.Done()
	defer l.untrack(conn)
	defer conn.Close()

	remote := remoteSender(conn.RemoteAddr())
	dec := framing.NewDecoder(l.cfg.MaxFrameSize)
	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			frames, derr := dec.Feed(buf[:n])
			for _, frame := range frames {
				l.deliver(frame, remote)
			}
			if derr != nil {
				l.metrics.DecodeError()
				logger.Warn("帧解码失败，关闭连接", "remote", remote.String(), "err", derr)
				return
			}
		}
		if err != nil {
			if !l.closed.Load() && !errors.Is(err, net.ErrClosed) {
				logger.Debug("入站连接结束", "remote", remote.String(), "err", err, "buffered", dec.Buffered())
			}
			return
		}
	}
}

func (l *Listener) deliver(frame []byte, remote types.RemoteSender) {
	l.metrics.FrameReceived(len(frame))
	done := l.metrics.ReceiveStarted()
	defer done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("分发入站消息时 panic", "remote", remote.String(), "panic", r)
		}
	}()
	l.dispatch(frame, remote)
}

func remoteSender(addr net.Addr) types.RemoteSender {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return types.RemoteSender{Address: tcp.IP.String(), Port: tcp.Port}
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return types.RemoteSender{Address: addr.String()}
	}
	p, _ := strconv.Atoi(port)
	return types.RemoteSender{Address: host, Port: p}
}
