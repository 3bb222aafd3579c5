package correlator

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/time/rate"

	"github.com/shardus/lib-net/internal/core/metrics"
	"github.com/shardus/lib-net/pkg/lib/log"
	"github.com/shardus/lib-net/pkg/types"
)

var logger = log.Logger("core/correlator")

// Config 关联器配置
type Config struct {
	// Retention 超时 ID 的保留时长
	Retention time.Duration

	// RegistrySize 超时登记表容量
	RegistrySize int

	// DiagnosticsPerSecond 迟到响应日志的速率上限
	DiagnosticsPerSecond float64
}

// Outcome 请求结果
//
// TimedOut 为 true 时其余字段为空。
type Outcome struct {
	Envelope *types.Envelope
	Header   *types.Header
	Sign     *types.Sign
	TimedOut bool
	RTT      time.Duration
}

// Callback 请求结果回调，每个请求恰好调用一次
type Callback func(Outcome)

// TimedOutEntry 超时登记项
type TimedOutEntry struct {
	TimedOutAt       time.Time
	RequestCreatedAt time.Time
}

type pendingRequest struct {
	done         Callback
	registeredAt time.Time
	timer        *clock.Timer
}

// Correlator 请求关联器
type Correlator struct {
	cfg     Config
	clk     clock.Clock
	metrics *metrics.Metrics
	limiter *rate.Limiter

	mu       sync.Mutex
	pending  map[string]*pendingRequest
	timedOut *simplelru.LRU[string, TimedOutEntry]
	closed   bool

	stop chan struct{}
	done chan struct{}
}

// New 创建关联器
//
// clk 为 nil 时使用系统时钟。Retention > 0 时启动按 clk 计时的清理协程，
// 由 Close 停止。
func New(cfg Config, clk clock.Clock, m *metrics.Metrics) *Correlator {
	if clk == nil {
		clk = clock.New()
	}
	burst := int(cfg.DiagnosticsPerSecond)
	if burst < 1 {
		burst = 1
	}
	if cfg.RegistrySize < 1 {
		cfg.RegistrySize = 1
	}
	// 容量为正时不会出错
	registry, _ := simplelru.NewLRU[string, TimedOutEntry](cfg.RegistrySize, nil)

	c := &Correlator{
		cfg:      cfg,
		clk:      clk,
		metrics:  m,
		limiter:  rate.NewLimiter(rate.Limit(cfg.DiagnosticsPerSecond), burst),
		pending:  make(map[string]*pendingRequest),
		timedOut: registry,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cfg.Retention > 0 {
		go c.sweepLoop(clk.Ticker(cfg.Retention))
	} else {
		close(c.done)
	}
	return c
}

// sweepLoop 每个保留周期清理一次过期的超时登记
func (c *Correlator) sweepLoop(t *clock.Ticker) {
	defer close(c.done)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.sweep(c.clk.Now())
		}
	}
}

// sweep 删除 now 时已超过保留时长的登记项
//
// 登记项按超时先后加入且命中即删除，最旧的在队首。
func (c *Correlator) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		id, entry, ok := c.timedOut.GetOldest()
		if !ok || !c.retired(entry, now) {
			return
		}
		c.timedOut.Remove(id)
	}
}

func (c *Correlator) retired(e TimedOutEntry, now time.Time) bool {
	return c.cfg.Retention > 0 && !now.Before(e.TimedOutAt.Add(c.cfg.Retention))
}

// NewID 生成新的请求 ID
//
// UUIDv7：时间有序且带随机部分，同一进程内不会重复。
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Register 登记等待中的请求
//
// timeout <= 0 时不登记，直接返回 nil；调用方不应期待回调。
func (c *Correlator) Register(id string, timeout time.Duration, done Callback) error {
	if timeout <= 0 {
		return nil
	}
	if done == nil {
		return fmt.Errorf("correlator: nil callback for %s", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, ok := c.pending[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	p := &pendingRequest{done: done, registeredAt: c.clk.Now()}
	c.pending[id] = p
	p.timer = c.clk.AfterFunc(timeout, func() { c.expire(id, p) })
	c.metrics.SetPending(len(c.pending))
	return nil
}

// Complete 以响应结束请求
//
// 请求不在等待中（从未登记、已完成或已超时）时返回 false。
func (c *Correlator) Complete(id string, o Outcome) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		c.metrics.SetPending(len(c.pending))
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	p.timer.Stop()

	o.TimedOut = false
	o.RTT = c.clk.Since(p.registeredAt)
	c.metrics.Completed()
	p.done(o)
	return true
}

// Cancel 撤销等待中的请求，不触发回调
//
// 用于请求未能发出的情形，错误已直接返回给调用方。
func (c *Correlator) Cancel(id string) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		c.metrics.SetPending(len(c.pending))
	}
	c.mu.Unlock()

	if ok {
		p.timer.Stop()
	}
	return ok
}

func (c *Correlator) expire(id string, p *pendingRequest) {
	c.mu.Lock()
	if cur, ok := c.pending[id]; !ok || cur != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	c.metrics.SetPending(len(c.pending))
	c.timedOut.Add(id, TimedOutEntry{TimedOutAt: c.clk.Now(), RequestCreatedAt: p.registeredAt})
	c.mu.Unlock()

	c.metrics.TimedOut()
	logger.Debug("请求超时", "id", log.TruncateID(id, 13))
	p.done(Outcome{TimedOut: true})
}

// LateReply 判断 id 是否为已超时请求的迟到响应
//
// 命中时删除登记项、计数并按速率上限记录日志。
func (c *Correlator) LateReply(id string) (TimedOutEntry, bool) {
	now := c.clk.Now()
	c.mu.Lock()
	entry, ok := c.timedOut.Peek(id)
	if ok {
		c.timedOut.Remove(id)
	}
	c.mu.Unlock()

	// 清理协程尚未运行时也不认过期的登记项
	if !ok || c.retired(entry, now) {
		return TimedOutEntry{}, false
	}

	c.metrics.LateReply()
	if c.limiter.Allow() {
		logger.Info("忽略迟到响应",
			"id", log.TruncateID(id, 13),
			"sinceTimeout", now.Sub(entry.TimedOutAt),
			"sinceRequest", now.Sub(entry.RequestCreatedAt))
	}
	return entry, true
}

// Pending 返回等待中的请求数
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// TimedOutLen 返回超时登记表的条目数
func (c *Correlator) TimedOutLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timedOut.Len()
}

// Close 关闭关联器
//
// 所有等待中的请求以超时结束，保证调用方不会一直等待。
// 返回前清理协程已退出。
func (c *Correlator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.metrics.SetPending(0)
	c.mu.Unlock()

	close(c.stop)
	<-c.done

	for _, p := range pending {
		p.timer.Stop()
		p.done(Outcome{TimedOut: true})
	}
	c.mu.Lock()
	c.timedOut.Purge()
	c.mu.Unlock()
}
