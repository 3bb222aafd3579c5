package libnet

import (
	"time"

	"github.com/shardus/lib-net/internal/core/correlator"
	"github.com/shardus/lib-net/internal/core/header"
	"github.com/shardus/lib-net/pkg/lib/log"
	"github.com/shardus/lib-net/pkg/types"
)

// dispatch 处理监听器交付的一帧
//
//   - resp：完成等待中的请求，否则按迟到或无匹配响应丢弃
//   - ask / tell：交给 Handler
//   - 无方向（旧版节点）：能匹配等待中的请求时按响应处理，否则交给 Handler
//   - 未知方向：丢弃
func (m *Messenger) dispatch(payload []byte, remote types.RemoteSender) {
	var (
		hdr    *types.Header
		sign   *types.Sign
		signed []byte
		body   = payload
	)

	dec, err := header.Decode(payload)
	if err != nil {
		m.metrics.HeaderError()
		logger.Warn("丢弃头部无效的帧", "remote", remote.String(), "len", len(payload), "err", err)
		return
	}
	if dec != nil {
		body = dec.Data
		if m.cfg.Header.Enabled() {
			hdr = dec.Header
			if s := dec.Sign; !s.IsEmpty() {
				sign = &s
				signed = dec.Signed
			}
		}
	}

	env, err := m.serializer.Unmarshal(body)
	if err != nil {
		logger.Warn("丢弃无法解析的信封", "remote", remote.String(), "len", len(body), "err", err)
		return
	}

	if env.Direction != "" && !env.Direction.IsValid() {
		logger.Warn("丢弃方向未知的信封", "remote", remote.String(), "dir", string(env.Direction))
		return
	}

	now := m.clk.Now()
	switch env.Direction {
	case types.DirResp:
		if !m.complete(env, hdr, sign, now) {
			m.dropReply(env, remote)
		}
		return
	case types.DirAsk, types.DirTell:
	default:
		if m.complete(env, hdr, sign, now) {
			return
		}
		if _, late := m.corr.LateReply(env.ID); late {
			return
		}
	}

	m.deliver(&Request{
		Data:     env.Data,
		Envelope: env,
		Remote:   remote,
		Header:   hdr,
		Sign:     sign,
		signed:   signed,
		m:        m,
	}, now)
}

func (m *Messenger) complete(env *types.Envelope, hdr *types.Header, sign *types.Sign, now time.Time) bool {
	env.ReplyReceivedTime = now.UnixMilli()
	return m.corr.Complete(env.ID, correlator.Outcome{Envelope: env, Header: hdr, Sign: sign})
}

// dropReply 丢弃未能完成请求的响应
func (m *Messenger) dropReply(env *types.Envelope, remote types.RemoteSender) {
	if _, late := m.corr.LateReply(env.ID); late {
		return
	}
	m.metrics.UnmatchedReply()
	logger.Debug("丢弃无匹配的响应",
		"id", log.TruncateID(env.ID, 13),
		"remote", remote.String())
}

func (m *Messenger) deliver(req *Request, now time.Time) {
	h := m.currentHandler()
	if h == nil {
		logger.Debug("未设置处理器，丢弃消息", "id", log.TruncateID(req.Envelope.ID, 13))
		return
	}
	req.Envelope.ReplyReceivedTime = 0
	req.Envelope.ReceivedTime = now.UnixMilli()
	h(req)
}
