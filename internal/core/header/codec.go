package header

import (
	"fmt"

	"github.com/shardus/lib-net/pkg/interfaces"
	"github.com/shardus/lib-net/pkg/types"
)

// Option 头部构建选项
type Option func(*types.Header)

// WithSenderID 设置发送方标识
func WithSenderID(id string) Option {
	return func(h *types.Header) { h.SenderID = id }
}

// WithTrackerID 设置跟踪 ID
func WithTrackerID(id string) Option {
	return func(h *types.Header) { h.TrackerID = id }
}

// WithVerificationData 设置校验数据
func WithVerificationData(data string) Option {
	return func(h *types.Header) { h.VerificationData = data }
}

// WithCompression 设置压缩标签
func WithCompression(c types.Compression) Option {
	return func(h *types.Header) { h.Compression = c }
}

// Build 构建头部
func Build(id string, opts ...Option) *types.Header {
	h := &types.Header{ID: id}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Decoded 解析后的带头部帧
type Decoded struct {
	Version uint8
	Header  *types.Header
	Sign    types.Sign
	Data    []byte

	// Signed 签名覆盖的字节，无签名时为 nil
	Signed []byte
}

// Encode 编码带头部的帧负载
//
// 会改写 hdr.MessageLength。signer 为 nil 时签名为空。
func Encode(version uint8, hdr *types.Header, data []byte, signer interfaces.Signer) ([]byte, error) {
	if hdr == nil {
		return nil, fmt.Errorf("%w: header is nil", ErrInvalidHeader)
	}
	hdr.MessageLength = uint32(len(data))

	var (
		raw []byte
		err error
	)
	switch version {
	case Version1:
		raw, err = MarshalV1(hdr)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if err != nil {
		return nil, err
	}

	msg := &Message{Version: version, Header: raw, Data: data}
	if signer != nil {
		sign, err := signer.Sign(msg.Unsigned())
		if err != nil {
			return nil, fmt.Errorf("header: sign message: %w", err)
		}
		msg.Sign = sign
	}
	return Wrap(msg.Marshal()), nil
}

// Decode 解析帧负载
//
// 无头部的负载返回 (nil, nil)，由调用方直接按信封解析。
func Decode(payload []byte) (*Decoded, error) {
	body, ok := Unwrap(payload)
	if !ok {
		return nil, nil
	}

	msg, err := UnmarshalMessage(body)
	if err != nil {
		return nil, err
	}

	var hdr *types.Header
	switch msg.Version {
	case Version1:
		hdr, err = UnmarshalV1(msg.Header)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, msg.Version)
	}
	if err != nil {
		return nil, err
	}
	if int(hdr.MessageLength) != len(msg.Data) {
		return nil, fmt.Errorf("%w: header says %d, got %d", ErrLengthMismatch, hdr.MessageLength, len(msg.Data))
	}

	d := &Decoded{
		Version: msg.Version,
		Header:  hdr,
		Sign:    msg.Sign,
		Data:    msg.Data,
	}
	if !msg.Sign.IsEmpty() {
		d.Signed = msg.Unsigned()
	}
	return d, nil
}
