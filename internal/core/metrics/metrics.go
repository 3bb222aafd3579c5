package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "libnet"

// EvictReason 连接被移出连接池的原因
type EvictReason string

const (
	// EvictLRU 超出容量
	EvictLRU EvictReason = "lru"
	// EvictPeerClosed 对端关闭
	EvictPeerClosed EvictReason = "peer_closed"
	// EvictError 套接字错误
	EvictError EvictReason = "error"
	// EvictExplicit 调用方主动移除
	EvictExplicit EvictReason = "explicit"
)

// Metrics 运行指标
type Metrics struct {
	reg *prometheus.Registry
	own []prometheus.Collector

	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	sendErrors     *prometheus.CounterVec
	decodeErrors   prometheus.Counter
	headerErrors   prometheus.Counter
	dials          prometheus.Counter
	evictions      *prometheus.CounterVec
	completed      prometheus.Counter
	timeouts       prometheus.Counter
	lateReplies    prometheus.Counter
	unmatched      prometheus.Counter

	outstandingSends    prometheus.Gauge
	outstandingReceives prometheus.Gauge
	pending             prometheus.Gauge
	poolSize            prometheus.Gauge

	n counters
}

type counters struct {
	sent, received, timeouts, lateReplies, dials, evictions atomic.Uint64
	outstandingSends, outstandingReceives                   atomic.Int64
}

// New 创建指标并注册到新的 Registry
func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	m.framesSent = counter("frames_sent_total", "Frames written to outbound connections.")
	m.framesReceived = counter("frames_received_total", "Frames decoded from inbound connections.")
	m.bytesSent = counter("bytes_sent_total", "Payload bytes written, excluding the length prefix.")
	m.bytesReceived = counter("bytes_received_total", "Payload bytes received, excluding the length prefix.")
	m.sendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "send_errors_total", Help: "Failed sends by kind.",
	}, []string{"kind"})
	m.decodeErrors = counter("frame_decode_errors_total", "Inbound connections torn down by a frame decode error.")
	m.headerErrors = counter("header_errors_total", "Inbound frames dropped because the header could not be parsed.")
	m.dials = counter("dials_total", "Outbound connections established.")
	m.evictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "pool_evictions_total", Help: "Connections removed from the pool by reason.",
	}, []string{"reason"})
	m.completed = counter("requests_completed_total", "Asks completed by a matching reply.")
	m.timeouts = counter("requests_timed_out_total", "Asks whose timeout fired before a reply.")
	m.lateReplies = counter("late_replies_total", "Replies that arrived after their ask timed out.")
	m.unmatched = counter("unmatched_replies_total", "Replies that matched neither a pending nor a timed-out ask.")

	m.outstandingSends = gauge("outstanding_sends", "Sends currently writing to a socket.")
	m.outstandingReceives = gauge("outstanding_receives", "Inbound messages currently being dispatched.")
	m.pending = gauge("pending_requests", "Asks waiting for a reply.")
	m.poolSize = gauge("pool_connections", "Outbound connections held by the pool.")

	m.own = []prometheus.Collector{
		m.framesSent, m.framesReceived, m.bytesSent, m.bytesReceived,
		m.sendErrors, m.decodeErrors, m.headerErrors, m.dials, m.evictions,
		m.completed, m.timeouts, m.lateReplies, m.unmatched,
		m.outstandingSends, m.outstandingReceives, m.pending, m.poolSize,
	}
	m.reg.MustRegister(m.own...)
	m.reg.MustRegister(collectors.NewGoCollector())
	return m
}

// RegisterTo 将本实例的指标额外注册到 r
//
// Go 运行时指标不会重复注册。多个实例注册到同一个 r 时需用
// prometheus.WrapRegistererWith 加上区分标签。
func (m *Metrics) RegisterTo(r prometheus.Registerer) error {
	if m == nil || r == nil {
		return nil
	}
	for _, c := range m.own {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Registry 返回指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// SendStarted 记录一次发送开始，返回结束回调
func (m *Metrics) SendStarted() func() {
	if m == nil {
		return func() {}
	}
	m.n.outstandingSends.Add(1)
	m.outstandingSends.Inc()
	return func() {
		m.n.outstandingSends.Add(-1)
		m.outstandingSends.Dec()
	}
}

// ReceiveStarted 记录一次入站分发开始，返回结束回调
func (m *Metrics) ReceiveStarted() func() {
	if m == nil {
		return func() {}
	}
	m.n.outstandingReceives.Add(1)
	m.outstandingReceives.Inc()
	return func() {
		m.n.outstandingReceives.Add(-1)
		m.outstandingReceives.Dec()
	}
}

// FrameSent 记录写出的帧
func (m *Metrics) FrameSent(payloadLen int) {
	if m == nil {
		return
	}
	m.n.sent.Add(1)
	m.framesSent.Inc()
	m.bytesSent.Add(float64(payloadLen))
}

// FrameReceived 记录收到的帧
func (m *Metrics) FrameReceived(payloadLen int) {
	if m == nil {
		return
	}
	m.n.received.Add(1)
	m.framesReceived.Inc()
	m.bytesReceived.Add(float64(payloadLen))
}

// SendError 记录发送失败，kind 为 connect 或 write
func (m *Metrics) SendError(kind string) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(kind).Inc()
}

// DecodeError 记录帧解码错误
func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

// HeaderError 记录头部解析错误
func (m *Metrics) HeaderError() {
	if m == nil {
		return
	}
	m.headerErrors.Inc()
}

// Dialed 记录一次建连
func (m *Metrics) Dialed() {
	if m == nil {
		return
	}
	m.n.dials.Add(1)
	m.dials.Inc()
}

// Evicted 记录连接移出
func (m *Metrics) Evicted(reason EvictReason) {
	if m == nil {
		return
	}
	m.n.evictions.Add(1)
	m.evictions.WithLabelValues(string(reason)).Inc()
}

// SetPoolSize 更新连接池大小
func (m *Metrics) SetPoolSize(n int) {
	if m == nil {
		return
	}
	m.poolSize.Set(float64(n))
}

// SetPending 更新等待中的请求数
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// Completed 记录请求收到响应
func (m *Metrics) Completed() {
	if m == nil {
		return
	}
	m.completed.Inc()
}

// TimedOut 记录请求超时
func (m *Metrics) TimedOut() {
	if m == nil {
		return
	}
	m.n.timeouts.Add(1)
	m.timeouts.Inc()
}

// LateReply 记录迟到响应
func (m *Metrics) LateReply() {
	if m == nil {
		return
	}
	m.n.lateReplies.Add(1)
	m.lateReplies.Inc()
}

// UnmatchedReply 记录无法关联的响应
func (m *Metrics) UnmatchedReply() {
	if m == nil {
		return
	}
	m.unmatched.Inc()
}
