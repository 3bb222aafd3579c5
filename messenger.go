package libnet

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shardus/lib-net/config"
	"github.com/shardus/lib-net/internal/core/correlator"
	"github.com/shardus/lib-net/internal/core/listener"
	"github.com/shardus/lib-net/internal/core/metrics"
	"github.com/shardus/lib-net/internal/core/pool"
	"github.com/shardus/lib-net/pkg/interfaces"
	"github.com/shardus/lib-net/pkg/lib/log"
	"github.com/shardus/lib-net/pkg/types"
)

var logger = log.Logger("libnet")

// Handler 处理入站的 ask 与 tell
//
// 在连接的读协程中同步调用，同一连接上的消息按到达顺序处理。
// 耗时处理应自行转到其他协程，req 可以在 Handler 返回后继续使用。
type Handler func(req *Request)

// Messenger 消息上下文
type Messenger struct {
	cfg        *config.Config
	clk        clock.Clock
	serializer interfaces.Serializer
	signer     interfaces.Signer

	metrics *metrics.Metrics
	pool    *pool.Pool
	corr    *correlator.Correlator

	// originPort 写入出站信封的端口，端口为 0 时在 Listen 后更新
	originPort atomic.Int64

	mu      sync.Mutex
	ln      *listener.Listener
	handler Handler
	closed  bool
}

// ServerHandle 监听句柄
type ServerHandle struct {
	ln *listener.Listener
}

// Port 返回实际监听端口
func (h *ServerHandle) Port() int {
	return h.ln.Port()
}

// Addr 返回实际监听地址
func (h *ServerHandle) Addr() string {
	return h.ln.Addr().String()
}

// New 创建 Messenger
//
// 配置无效时返回 ErrConfiguration，不做任何 I/O。
func New(cfg *config.Config, opts ...Option) (*Messenger, error) {
	if err := config.ValidateAll(cfg); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	cfg = cfg.Clone()
	m := metrics.New()
	if err := m.RegisterTo(o.registerer); err != nil {
		return nil, fmt.Errorf("libnet: register metrics: %w", err)
	}
	msgr := &Messenger{
		cfg:        cfg,
		clk:        o.clock,
		serializer: o.serializer,
		signer:     o.signer,
		metrics:    m,
		pool: pool.New(pool.Config{
			MaxSize:      cfg.Pool.Capacity(),
			DialTimeout:  cfg.Transport.DialTimeout.Duration(),
			WriteTimeout: cfg.Transport.WriteTimeout.Duration(),
		}, m),
		corr: correlator.New(correlator.Config{
			Retention:            cfg.Correlator.TimedOutRetention.Duration(),
			RegistrySize:         cfg.Correlator.TimedOutRegistrySize,
			DiagnosticsPerSecond: cfg.Correlator.DiagnosticsPerSecond,
		}, o.clock, m),
	}
	msgr.originPort.Store(int64(cfg.Port))

	logger.Debug("Messenger 已创建",
		"port", cfg.Port,
		"address", cfg.Address,
		"poolCapacity", cfg.Pool.Capacity(),
		"headerVersion", cfg.Header.Version,
		"serializer", o.serializer.Name())
	return msgr, nil
}

// Config 返回配置副本
func (m *Messenger) Config() *config.Config {
	return m.cfg.Clone()
}

// Registry 返回本实例的指标注册表
func (m *Messenger) Registry() *prometheus.Registry {
	return m.metrics.Registry()
}

// Addr 返回监听地址，未监听时返回配置中的地址与端口
func (m *Messenger) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln != nil {
		return m.ln.Addr().String()
	}
	return pool.Key(m.cfg.Address, m.cfg.Port)
}

// Port 返回写入出站信封的端口
//
// 配置端口为 0 时，Listen 之后为实际绑定的端口。
func (m *Messenger) Port() int {
	return int(m.originPort.Load())
}

// Listen 绑定配置中的地址与端口并开始接收
//
// 返回时端口已绑定。一个 Messenger 同时只能有一个监听。
func (m *Messenger) Listen(ctx context.Context, handler Handler) (*ServerHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.ln != nil {
		return nil, ErrAlreadyListening
	}

	ln, err := listener.Listen(ctx, listener.Config{
		Address:      m.cfg.Address,
		Port:         m.cfg.Port,
		MaxFrameSize: m.cfg.Transport.MaxFrameSize,
	}, m.dispatch, m.metrics)
	if err != nil {
		return nil, err
	}

	m.ln = ln
	m.handler = handler
	if m.cfg.Port == 0 {
		m.originPort.Store(int64(ln.Port()))
	}
	return &ServerHandle{ln: ln}, nil
}

// StopListening 停止监听
//
// 关闭监听套接字、所有入站连接与连接池中的出站连接，释放端口。
// 之后可以再次 Listen。
func (m *Messenger) StopListening(ctx context.Context, h *ServerHandle) error {
	m.mu.Lock()
	if h == nil || m.ln == nil || h.ln != m.ln {
		m.mu.Unlock()
		return ErrNotListening
	}
	ln := m.ln
	m.ln = nil
	m.handler = nil
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := ln.Close()
		m.pool.Purge()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EvictSocket 关闭并移出到目的地的出站连接
func (m *Messenger) EvictSocket(port int, address string) bool {
	return m.pool.Evict(address, port)
}

// Stats 返回运行统计
func (m *Messenger) Stats() types.PoolStats {
	ps := m.pool.Stats()
	snap := m.metrics.Snapshot()

	inbound := 0
	m.mu.Lock()
	if m.ln != nil {
		inbound = m.ln.ConnCount()
	}
	m.mu.Unlock()

	return types.PoolStats{
		PoolSize:            ps.Size,
		PoolCapacity:        ps.Capacity,
		InboundConns:        inbound,
		Pending:             m.corr.Pending(),
		TimedOut:            m.corr.TimedOutLen(),
		OutstandingSends:    snap.OutstandingSends,
		OutstandingReceives: snap.OutstandingReceives,
		TotalSent:           snap.Sent,
		TotalReceived:       snap.Received,
		TotalTimeouts:       snap.Timeouts,
		LateReplies:         snap.LateReplies,
		Dials:               snap.Dials,
		Evictions:           snap.Evictions,
	}
}

// Close 关闭 Messenger
//
// 停止监听，等待中的请求以超时结束，关闭所有出站连接。
func (m *Messenger) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	ln := m.ln
	m.ln = nil
	m.handler = nil
	m.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	m.corr.Close()
	if perr := m.pool.Close(); err == nil {
		err = perr
	}
	return err
}

func (m *Messenger) currentHandler() Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler
}

func (m *Messenger) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
