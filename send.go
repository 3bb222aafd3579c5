package libnet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/shardus/lib-net/internal/core/correlator"
	"github.com/shardus/lib-net/internal/core/header"
	"github.com/shardus/lib-net/internal/core/pool"
	"github.com/shardus/lib-net/pkg/lib/log"
	"github.com/shardus/lib-net/pkg/types"
)

// ResponseFunc 收到响应时调用
//
// 在入站连接的读协程中调用，不应长时间阻塞。
type ResponseFunc func(reply *types.Reply)

// TimeoutFunc 请求超时时调用
type TimeoutFunc func()

// ============================================================================
//                              单目的地发送
// ============================================================================

// Send 发送一条消息
//
// timeout > 0 时为 ask：onResponse 与 onTimeout 恰好调用其一。
// timeout <= 0 时为 tell，不登记也不回调。
// 写入失败时返回错误，两个回调都不会被调用。
func (m *Messenger) Send(ctx context.Context, port int, address string, data []byte,
	timeout time.Duration, onResponse ResponseFunc, onTimeout TimeoutFunc) error {
	return m.SendWithHeader(ctx, port, address, data, nil, timeout, onResponse, onTimeout)
}

// SendWithHeader 发送一条带头部的消息
//
// hdr.ID 会被改写为本次消息的 ID。头部模式关闭或 hdr 为 nil 时等同 Send。
func (m *Messenger) SendWithHeader(ctx context.Context, port int, address string, data []byte,
	hdr *types.Header, timeout time.Duration, onResponse ResponseFunc, onTimeout TimeoutFunc) error {
	if m.isClosed() {
		return ErrClosed
	}

	env := m.newEnvelope(data, timeout)
	payload, err := m.encode(env, hdr)
	if err != nil {
		return err
	}

	// 先登记再写入，响应可能在写入返回前到达
	if err := m.register(env.ID, timeout, onResponse, onTimeout); err != nil {
		return err
	}
	if err := m.pool.Send(ctx, address, port, payload); err != nil {
		m.corr.Cancel(env.ID)
		return sendError(err)
	}
	return nil
}

// Ask 发送请求并返回结果通道
//
// 通道恰好收到一个 Reply（响应或超时）后关闭。
func (m *Messenger) Ask(ctx context.Context, port int, address string, data []byte,
	timeout time.Duration) (<-chan types.Reply, error) {
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}

	ch := make(chan types.Reply, 1)
	err := m.Send(ctx, port, address, data, timeout,
		func(r *types.Reply) {
			ch <- *r
			close(ch)
		},
		func() {
			ch <- types.Reply{TimedOut: true}
			close(ch)
		})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Request 发送请求并阻塞等待响应
//
// 超时返回 ErrTimeout。ctx 取消时立即返回，请求仍会在超时后被清理。
func (m *Messenger) Request(ctx context.Context, port int, address string, data []byte,
	timeout time.Duration) (*types.Reply, error) {
	ch, err := m.Ask(ctx, port, address, data, timeout)
	if err != nil {
		return nil, err
	}

	select {
	case r := <-ch:
		if r.TimedOut {
			return nil, fmt.Errorf("%w: %s:%d after %s", ErrTimeout, address, port, timeout)
		}
		return &r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ============================================================================
//                              扇出发送
// ============================================================================

// MultiSendWithHeader 向多个目的地发送同一条消息
//
// 所有目的地共用一个消息 ID 与一次登记，第一个到达的响应生效，
// 其余响应按无匹配响应丢弃。
//
// awaitAll 为 true 时等待全部写入结束，返回的错误聚合了各目的地的失败，
// 部分成功时 result.Sent > 0。awaitAll 为 false 时只返回 ID，写入失败仅记录日志。
// 全部写入失败时撤销登记，回调不会被调用。
func (m *Messenger) MultiSendWithHeader(ctx context.Context, ports []int, addresses []string,
	data []byte, hdr *types.Header, timeout time.Duration,
	onResponse ResponseFunc, onTimeout TimeoutFunc, awaitAll bool) (*types.MultiSendResult, error) {
	if len(ports) != len(addresses) {
		return nil, fmt.Errorf("%w: %d ports, %d addresses", ErrMismatchedDestinations, len(ports), len(addresses))
	}
	if m.isClosed() {
		return nil, ErrClosed
	}

	env := m.newEnvelope(data, timeout)
	result := &types.MultiSendResult{ID: env.ID, Failed: make(map[string]error)}
	if len(ports) == 0 {
		return result, nil
	}

	payload, err := m.encode(env, hdr)
	if err != nil {
		return nil, err
	}
	if err := m.register(env.ID, timeout, onResponse, onTimeout); err != nil {
		return nil, err
	}

	if !awaitAll {
		bg := context.WithoutCancel(ctx)
		go func() {
			r, err := m.fanout(bg, env.ID, ports, addresses, payload)
			if !r.OK() {
				logger.WarnContext(bg, "扇出发送部分失败",
					"id", log.TruncateID(env.ID, 13),
					"sent", r.Sent,
					"failed", len(r.Failed),
					"err", err)
			}
		}()
		return result, nil
	}

	r, err := m.fanout(ctx, env.ID, ports, addresses, payload)
	result.Sent, result.Failed = r.Sent, r.Failed
	return result, err
}

func (m *Messenger) fanout(ctx context.Context, id string, ports []int, addresses []string,
	payload []byte) (*types.MultiSendResult, error) {
	var (
		mu     sync.Mutex
		result = &types.MultiSendResult{Failed: make(map[string]error)}
		errs   error
	)

	var g errgroup.Group
	g.SetLimit(m.cfg.Fanout.Concurrency)
	for i := range ports {
		port, address := ports[i], addresses[i]
		g.Go(func() error {
			err := m.pool.Send(ctx, address, port, payload)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				err = sendError(err)
				result.Failed[pool.Key(address, port)] = err
				errs = multierr.Append(errs, err)
			} else {
				result.Sent++
			}
			// 单个目的地失败不影响其他目的地
			return nil
		})
	}
	_ = g.Wait()

	if result.Sent == 0 {
		m.corr.Cancel(id)
	}
	return result, errs
}

// ============================================================================
//                              内部方法
// ============================================================================

func (m *Messenger) newEnvelope(data []byte, timeout time.Duration) *types.Envelope {
	env := &types.Envelope{
		Data:          data,
		ID:            correlator.NewID(),
		OriginPort:    m.Port(),
		OriginAddress: m.cfg.Address,
		SendTime:      m.clk.Now().UnixMilli(),
		Direction:     types.DirTell,
	}
	if timeout > 0 {
		env.Direction = types.DirAsk
		// 向上取整，避免亚毫秒超时被对端视为已过期
		env.TimeoutMs = int64((timeout + time.Millisecond - 1) / time.Millisecond)
	}
	return env
}

// encode 序列化信封，按需加上头部
func (m *Messenger) encode(env *types.Envelope, hdr *types.Header) ([]byte, error) {
	body, err := m.serializer.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("libnet: serialize envelope: %w", err)
	}
	if hdr == nil || !m.cfg.Header.Enabled() {
		return body, nil
	}

	h := header.Build(env.ID,
		header.WithSenderID(hdr.SenderID),
		header.WithTrackerID(hdr.TrackerID),
		header.WithVerificationData(hdr.VerificationData),
		header.WithCompression(hdr.Compression))
	return header.Encode(m.cfg.Header.Version, h, body, m.signer)
}

func (m *Messenger) register(id string, timeout time.Duration,
	onResponse ResponseFunc, onTimeout TimeoutFunc) error {
	err := m.corr.Register(id, timeout, func(o correlator.Outcome) {
		if o.TimedOut {
			if onTimeout != nil {
				onTimeout()
			}
			return
		}
		if onResponse != nil {
			onResponse(&types.Reply{
				Data:     o.Envelope.Data,
				Envelope: o.Envelope,
				Header:   o.Header,
				Sign:     o.Sign,
				RTT:      o.RTT,
			})
		}
	})
	if errors.Is(err, correlator.ErrClosed) {
		return ErrClosed
	}
	return err
}

// sendError 将连接池的错误映射为公共错误
func sendError(err error) error {
	if errors.Is(err, pool.ErrPoolClosed) {
		return ErrClosed
	}
	return err
}
