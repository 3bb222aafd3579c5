package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.FrameSent(10)
	m.FrameSent(5)
	m.FrameReceived(7)
	m.Dialed()
	m.Evicted(EvictLRU)
	m.Evicted(EvictPeerClosed)
	m.TimedOut()
	m.LateReply()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.Sent)
	assert.Equal(t, uint64(1), snap.Received)
	assert.Equal(t, uint64(1), snap.Dials)
	assert.Equal(t, uint64(2), snap.Evictions)
	assert.Equal(t, uint64(1), snap.Timeouts)
	assert.Equal(t, uint64(1), snap.LateReplies)

	assert.Equal(t, float64(15), testutil.ToFloat64(m.bytesSent))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.evictions.WithLabelValues("lru")))
}

func TestMetrics_Outstanding(t *testing.T) {
	m := New()

	doneA := m.SendStarted()
	doneB := m.SendStarted()
	recv := m.ReceiveStarted()
	assert.Equal(t, int64(2), m.Snapshot().OutstandingSends)
	assert.Equal(t, int64(1), m.Snapshot().OutstandingReceives)

	doneA()
	doneB()
	recv()
	assert.Zero(t, m.Snapshot().OutstandingSends)
	assert.Zero(t, m.Snapshot().OutstandingReceives)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.outstandingSends))
}

func TestMetrics_Registry(t *testing.T) {
	m := New()
	m.FrameSent(1)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["libnet_frames_sent_total"])
	assert.True(t, names["libnet_pool_connections"])

	// 两个实例互不冲突
	assert.NotPanics(t, func() { New() })
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.FrameSent(1)
		m.FrameReceived(1)
		m.SendError("write")
		m.Evicted(EvictExplicit)
		m.SetPending(3)
		m.SendStarted()()
		m.ReceiveStarted()()
	})
	assert.Nil(t, m.Registry())
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetrics_RegisterTo(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.RegisterTo(reg))

	m.Dialed()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["libnet_dials_total"])
	assert.False(t, names["go_goroutines"])

	// 重复注册报错
	assert.Error(t, m.RegisterTo(reg))

	var nilMetrics *Metrics
	assert.NoError(t, nilMetrics.RegisterTo(reg))
}
