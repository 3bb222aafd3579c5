package header

import "github.com/shardus/lib-net/pkg/types"

// Sentinel 带头部帧的首字节
const Sentinel byte = 0x01

// Message 带头部的消息体
type Message struct {
	Version uint8
	Header  []byte
	Data    []byte
	Sign    types.Sign
}

// Unsigned 返回待签名部分：[version][u32+header][u32+data]
func (m *Message) Unsigned() []byte {
	buf := make([]byte, 0, 1+8+len(m.Header)+len(m.Data))
	buf = append(buf, m.Version)
	buf = appendBytes(buf, m.Header)
	buf = appendBytes(buf, m.Data)
	return buf
}

// Marshal 序列化完整消息（含签名）
func (m *Message) Marshal() []byte {
	buf := m.Unsigned()
	buf = appendBytes(buf, m.Sign.Owner)
	buf = appendBytes(buf, m.Sign.Sig)
	return buf
}

// UnmarshalMessage 解析消息体
func UnmarshalMessage(data []byte) (*Message, error) {
	r := &reader{buf: data}
	m := &Message{
		Version: r.u8(),
		Header:  r.bytes(),
		Data:    r.bytes(),
	}
	m.Sign.Owner = r.bytes()
	m.Sign.Sig = r.bytes()
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// Wrap 给消息体加上头部标记
func Wrap(msg []byte) []byte {
	out := make([]byte, 0, 1+len(msg))
	out = append(out, Sentinel)
	return append(out, msg...)
}

// Unwrap 去掉头部标记
//
// 负载不是带头部的帧时返回 false。
func Unwrap(payload []byte) ([]byte, bool) {
	if !IsHeadered(payload) {
		return nil, false
	}
	return payload[1:], true
}

// IsHeadered 判断帧负载是否带头部
func IsHeadered(payload []byte) bool {
	return len(payload) >= 2 && payload[0] == Sentinel
}
