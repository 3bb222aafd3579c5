package correlator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardus/lib-net/internal/core/metrics"
	"github.com/shardus/lib-net/pkg/types"
)

func testConfig() Config {
	return Config{Retention: time.Minute, RegistrySize: 1024, DiagnosticsPerSecond: 100}
}

func newMockCorrelator(t *testing.T) (*Correlator, *clock.Mock, *metrics.Metrics) {
	t.Helper()
	mock := clock.NewMock()
	m := metrics.New()
	c := New(testConfig(), mock, m)
	t.Cleanup(c.Close)
	return c, mock, m
}

// recorder 收集回调结果
type recorder struct {
	ch chan Outcome
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Outcome, 16)}
}

func (r *recorder) cb(o Outcome) {
	r.ch <- o
}

func (r *recorder) wait(t *testing.T) Outcome {
	t.Helper()
	select {
	case o := <-r.ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
		return Outcome{}
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case o := <-r.ch:
		t.Fatalf("unexpected callback: %+v", o)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRegister_ZeroTimeoutCreatesNothing(t *testing.T) {
	c, _, _ := newMockCorrelator(t)

	require.NoError(t, c.Register("a", 0, func(Outcome) { t.Fatal("must not be called") }))
	assert.Zero(t, c.Pending())
	assert.False(t, c.Complete("a", Outcome{}))
}

func TestComplete_BeforeTimeout(t *testing.T) {
	c, mock, m := newMockCorrelator(t)
	rec := newRecorder()

	require.NoError(t, c.Register("a", time.Second, rec.cb))
	assert.Equal(t, 1, c.Pending())

	mock.Add(400 * time.Millisecond)
	env := &types.Envelope{ID: "a", Data: []byte("pong"), Direction: types.DirResp}
	assert.True(t, c.Complete("a", Outcome{Envelope: env}))

	o := rec.wait(t)
	assert.False(t, o.TimedOut)
	assert.Equal(t, env, o.Envelope)
	assert.Equal(t, 400*time.Millisecond, o.RTT)

	// 定时器到期也不会再回调
	mock.Add(2 * time.Second)
	rec.none(t)
	assert.False(t, c.Complete("a", Outcome{Envelope: env}))
	assert.Zero(t, c.Pending())
	assert.Zero(t, m.Snapshot().Timeouts)

	_, late := c.LateReply("a")
	assert.False(t, late)
}

func TestTimeout_ThenLateReply(t *testing.T) {
	c, mock, m := newMockCorrelator(t)
	rec := newRecorder()

	require.NoError(t, c.Register("a", time.Second, rec.cb))
	mock.Add(time.Second)

	o := rec.wait(t)
	assert.True(t, o.TimedOut)
	assert.Nil(t, o.Envelope)

	assert.False(t, c.Complete("a", Outcome{Envelope: &types.Envelope{ID: "a"}}))
	rec.none(t)
	assert.Equal(t, 1, c.TimedOutLen())

	entry, late := c.LateReply("a")
	require.True(t, late)
	assert.Equal(t, mock.Now(), entry.TimedOutAt)
	assert.Equal(t, time.Second, entry.TimedOutAt.Sub(entry.RequestCreatedAt))

	// 登记项在首次命中后删除
	_, late = c.LateReply("a")
	assert.False(t, late)
	assert.Equal(t, uint64(1), m.Snapshot().Timeouts)
	assert.Equal(t, uint64(1), m.Snapshot().LateReplies)
}

func TestComplete_OutOfOrder(t *testing.T) {
	c, _, _ := newMockCorrelator(t)

	const n = 100
	results := make([]chan Outcome, n)
	for i := 0; i < n; i++ {
		results[i] = make(chan Outcome, 1)
		ch := results[i]
		require.NoError(t, c.Register(fmt.Sprintf("id-%d", i), time.Minute, func(o Outcome) { ch <- o }))
	}
	assert.Equal(t, n, c.Pending())

	for i := n - 1; i >= 0; i-- {
		id := fmt.Sprintf("id-%d", i)
		require.True(t, c.Complete(id, Outcome{Envelope: &types.Envelope{ID: id, Data: []byte(id)}}))
	}

	for i := 0; i < n; i++ {
		o := <-results[i]
		assert.Equal(t, fmt.Sprintf("id-%d", i), string(o.Envelope.Data))
	}
	assert.Zero(t, c.Pending())
}

func TestCancel(t *testing.T) {
	c, mock, _ := newMockCorrelator(t)
	rec := newRecorder()

	require.NoError(t, c.Register("a", time.Second, rec.cb))
	assert.True(t, c.Cancel("a"))
	assert.False(t, c.Cancel("a"))

	mock.Add(2 * time.Second)
	rec.none(t)
	assert.Zero(t, c.TimedOutLen())
}

func TestRegister_Duplicate(t *testing.T) {
	c, _, _ := newMockCorrelator(t)

	require.NoError(t, c.Register("a", time.Second, func(Outcome) {}))
	err := c.Register("a", time.Second, func(Outcome) {})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestExactlyOnce_RaceWithRealClock(t *testing.T) {
	c := New(testConfig(), nil, nil)
	defer c.Close()

	const n = 500
	var calls [n]atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("id-%d", i)
		idx := i
		wg.Add(1)
		require.NoError(t, c.Register(id, time.Millisecond, func(Outcome) {
			calls[idx].Add(1)
			wg.Done()
		}))
		go c.Complete(id, Outcome{Envelope: &types.Envelope{ID: id}})
	}
	wg.Wait()

	// 留出时间让多余的回调（如果有）发生
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < n; i++ {
		assert.Equal(t, int32(1), calls[i].Load(), "request %d", i)
	}
	assert.Zero(t, c.Pending())
}

func TestClose_FailsPendingAsTimedOut(t *testing.T) {
	c := New(testConfig(), clock.NewMock(), nil)
	rec := newRecorder()

	require.NoError(t, c.Register("a", time.Hour, rec.cb))
	require.NoError(t, c.Register("b", time.Hour, rec.cb))
	c.Close()

	assert.True(t, rec.wait(t).TimedOut)
	assert.True(t, rec.wait(t).TimedOut)
	assert.Zero(t, c.Pending())

	assert.ErrorIs(t, c.Register("c", time.Second, rec.cb), ErrClosed)
	c.Close()
}

func TestRetention_Expires(t *testing.T) {
	c, mock, m := newMockCorrelator(t)
	rec := newRecorder()

	require.NoError(t, c.Register("a", time.Second, rec.cb))
	mock.Add(time.Second)
	require.True(t, rec.wait(t).TimedOut)

	// 保留期内仍在登记表中
	mock.Add(30 * time.Second)
	assert.Equal(t, 1, c.TimedOutLen())

	// 按注入的时钟清理，不依赖真实时间
	mock.Add(2 * testConfig().Retention)
	require.Eventually(t, func() bool { return c.TimedOutLen() == 0 }, 2*time.Second, 5*time.Millisecond)

	_, late := c.LateReply("a")
	assert.False(t, late)
	assert.Zero(t, m.Snapshot().LateReplies)
}

func TestRetention_LateReplyChecksAge(t *testing.T) {
	cfg := testConfig()
	cfg.Retention = time.Hour
	mock := clock.NewMock()
	c := New(cfg, mock, nil)
	defer c.Close()
	rec := newRecorder()

	require.NoError(t, c.Register("a", time.Second, rec.cb))
	mock.Add(time.Second)
	require.True(t, rec.wait(t).TimedOut)

	// 清理协程可能尚未运行，LateReply 自行检查保留时长
	mock.Set(mock.Now().Add(cfg.Retention))
	_, late := c.LateReply("a")
	assert.False(t, late)
}

func TestClose_StopsSweeper(t *testing.T) {
	c := New(testConfig(), clock.NewMock(), nil)
	c.Close()

	select {
	case <-c.done:
	default:
		t.Fatal("sweeper still running after Close")
	}
}
