package metrics

// Snapshot 计数快照
type Snapshot struct {
	Sent                uint64
	Received            uint64
	Timeouts            uint64
	LateReplies         uint64
	Dials               uint64
	Evictions           uint64
	OutstandingSends    int64
	OutstandingReceives int64
}

// Snapshot 返回当前计数
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Sent:                m.n.sent.Load(),
		Received:            m.n.received.Load(),
		Timeouts:            m.n.timeouts.Load(),
		LateReplies:         m.n.lateReplies.Load(),
		Dials:               m.n.dials.Load(),
		Evictions:           m.n.evictions.Load(),
		OutstandingSends:    m.n.outstandingSends.Load(),
		OutstandingReceives: m.n.outstandingReceives.Load(),
	}
}
