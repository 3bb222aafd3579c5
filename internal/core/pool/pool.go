package pool

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/shardus/lib-net/internal/core/metrics"
	"github.com/shardus/lib-net/pkg/lib/log"
)

var logger = log.Logger("core/pool")

// Config 连接池配置
type Config struct {
	// MaxSize 最大连接数，0 表示不设上限
	MaxSize int

	// DialTimeout 建连超时
	DialTimeout time.Duration

	// WriteTimeout 单次写超时，0 表示不设
	WriteTimeout time.Duration
}

// Stats 连接池统计
type Stats struct {
	Size     int
	Capacity int
}

// Pool 出站连接池
type Pool struct {
	cfg     Config
	metrics *metrics.Metrics
	dialer  *net.Dialer

	mu     sync.Mutex
	conns  cache
	reason metrics.EvictReason
	closed bool

	watchers sync.WaitGroup
}

// New 创建连接池
func New(cfg Config, m *metrics.Metrics) *Pool {
	p := &Pool{
		cfg:     cfg,
		metrics: m,
		dialer:  &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second},
		reason:  metrics.EvictLRU,
	}
	if cfg.MaxSize > 0 {
		c, err := newLRUCache(cfg.MaxSize, p.onEvict)
		if err != nil {
			// 只在 size <= 0 时出错，上面已排除
			panic(err)
		}
		p.conns = c
	} else {
		p.conns = newMapCache(p.onEvict)
	}
	return p
}

// Key 返回目的地键 "address:port"
func Key(address string, port int) string {
	return net.JoinHostPort(address, strconv.Itoa(port))
}

// Acquire 获取目的地对应的连接
//
// 不拨号，不失败。新建的 Conn 在首次 Send 时建立 TCP 连接。
// 启用上限时，插入新连接可能淘汰最久未使用的连接。
func (p *Pool) Acquire(address string, port int) *Conn {
	key := Key(address, port)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns.Get(key); ok {
		return c
	}

	c := newConn(p, key, address, port)
	if p.closed {
		c.Close()
		return c
	}
	p.reason = metrics.EvictLRU
	p.conns.Add(key, c)
	p.metrics.SetPoolSize(p.conns.Len())
	return c
}

// Send 向目的地写出一帧
//
// 连接在 Acquire 与写入之间被移出时，重新获取一次。
func (p *Pool) Send(ctx context.Context, address string, port int, payload []byte) error {
	done := p.metrics.SendStarted()
	defer done()

	for attempt := 0; ; attempt++ {
		if p.isClosed() {
			return ErrPoolClosed
		}
		err := p.Acquire(address, port).Send(ctx, payload)
		if errors.Is(err, ErrConnClosed) && attempt == 0 {
			continue
		}
		return err
	}
}

// Evict 主动移除目的地对应的连接并关闭
func (p *Pool) Evict(address string, port int) bool {
	key := Key(address, port)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.reason = metrics.EvictExplicit
	ok := p.conns.Remove(key)
	p.metrics.SetPoolSize(p.conns.Len())
	return ok
}

// remove 仅当表中仍是 c 时移除
func (p *Pool) remove(c *Conn, reason metrics.EvictReason) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.conns.Peek(c.key); !ok || cur != c {
		return
	}
	p.reason = reason
	p.conns.Remove(c.key)
	p.metrics.SetPoolSize(p.conns.Len())
}

// onEvict 在持有 p.mu 时被 cache 回调
func (p *Pool) onEvict(key string, c *Conn) {
	c.Close()
	if p.closed {
		return
	}
	p.metrics.Evicted(p.reason)
	logger.Debug("连接移出连接池", "dest", key, "reason", p.reason)
}

// Len 返回当前连接数
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns.Len()
}

// Cap 返回容量，0 表示不设上限
func (p *Pool) Cap() int {
	return p.cfg.MaxSize
}

// Stats 返回统计
func (p *Pool) Stats() Stats {
	return Stats{Size: p.Len(), Capacity: p.Cap()}
}

// Purge 关闭并移出所有连接，连接池仍可继续使用
func (p *Pool) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reason = metrics.EvictExplicit
	p.conns.Purge()
	p.metrics.SetPoolSize(0)
}

// Close 关闭所有连接
//
// 之后的 Send 返回 ErrPoolClosed。
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.conns.Purge()
	p.metrics.SetPoolSize(0)
	p.mu.Unlock()

	p.watchers.Wait()
	return nil
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
