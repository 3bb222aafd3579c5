package libnet

import (
	"context"
	"net"

	"github.com/shardus/lib-net/pkg/lib/crypto"
	"github.com/shardus/lib-net/pkg/types"
)

// Request 入站的 ask 或 tell
type Request struct {
	// Data 应用负载
	Data []byte

	// Envelope 完整信封
	Envelope *types.Envelope

	// Remote 套接字对端
	Remote types.RemoteSender

	// Header 消息头部，无头部或本端未启用头部模式时为 nil
	Header *types.Header

	// Sign 消息签名，条件同 Header
	Sign *types.Sign

	signed []byte
	m      *Messenger
}

// IsAsk 检查发送方是否在等待响应
func (r *Request) IsAsk() bool {
	return r.Envelope.Direction == types.DirAsk
}

// VerifySign 用 ed25519 校验消息签名
//
// 引擎不会自动验签，由处理器按需调用。没有签名时返回 ErrUnsigned。
func (r *Request) VerifySign() error {
	if r.Sign == nil {
		return ErrUnsigned
	}
	return crypto.VerifySign(*r.Sign, r.signed)
}

// Respond 回复请求
//
// 响应发往信封声明的 OriginAddress:OriginPort，而非套接字对端。
// 发送方已不再等待（包括 tell）时不发送，返回 nil。
func (r *Request) Respond(ctx context.Context, data []byte) error {
	return r.RespondWithHeader(ctx, data, nil)
}

// RespondWithHeader 带头部回复请求
func (r *Request) RespondWithHeader(ctx context.Context, data []byte, hdr *types.Header) error {
	m := r.m
	if m.isClosed() {
		return ErrClosed
	}

	req := r.Envelope
	now := m.clk.Now()
	if req.Expired(now) {
		return nil
	}

	resp := &types.Envelope{
		Data:          data,
		ID:            req.ID,
		OriginPort:    m.Port(),
		OriginAddress: m.cfg.Address,
		SendTime:      req.SendTime,
		ReceivedTime:  req.ReceivedTime,
		ReplyTime:     now.UnixMilli(),
		TimeoutMs:     req.TimeoutMs,
		Direction:     types.DirResp,
	}
	payload, err := m.encode(resp, hdr)
	if err != nil {
		return err
	}
	return sendError(m.pool.Send(ctx, r.replyAddress(), req.OriginPort, payload))
}

// replyAddress 声明的地址为空或未指定时使用套接字对端 IP
func (r *Request) replyAddress() string {
	addr := r.Envelope.OriginAddress
	if addr == "" {
		return r.Remote.Address
	}
	if ip := net.ParseIP(addr); ip != nil && ip.IsUnspecified() {
		return r.Remote.Address
	}
	return addr
}
