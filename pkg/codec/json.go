package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/shardus/lib-net/pkg/types"
)

// JSONName JSON 序列化器名称
const JSONName = "json"

// JSON 默认序列化器，与现有节点的 JSON 信封互通
//
// "data" 字段是任意 JSON 值，Envelope.Data 与它的对应关系：
//   - JSON 字符串 "ping" <-> Data 为字符串内容 ping
//   - 其他 JSON 值（对象、数组、数字、true/false）<-> Data 为该值的原始 JSON 文本
//   - null 或缺省 <-> Data 为空
//
// 发送时，不是合法 JSON 的 Data 以及本身是 JSON 字符串字面量的 Data
// 按字符串发送。JSON 值中的空白会被压缩，其余往返不变。
// Data 必须是 UTF-8 文本，二进制负载使用 ProtoWire。
type JSON struct{}

// jsonEnvelope 线上 JSON 信封，字段名与现有节点保持一致
type jsonEnvelope struct {
	Data              json.RawMessage `json:"data,omitempty"`
	ID                string          `json:"UUID"`
	OriginPort        int             `json:"PORT"`
	OriginAddress     string          `json:"ADDRESS,omitempty"`
	SendTime          int64           `json:"sendTime"`
	ReceivedTime      int64           `json:"receivedTime"`
	ReplyTime         int64           `json:"replyTime"`
	ReplyReceivedTime int64           `json:"replyReceivedTime"`
	TimeoutMs         int64           `json:"timeout,omitempty"`
	Direction         types.Direction `json:"msgDir,omitempty"`
}

// Name 返回序列化器名称
func (JSON) Name() string { return JSONName }

// Marshal 序列化信封
func (JSON) Marshal(env *types.Envelope) ([]byte, error) {
	data, err := encodeJSONData(env.Data)
	if err != nil {
		return nil, err
	}
	w := &jsonEnvelope{
		Data:              data,
		ID:                env.ID,
		OriginPort:        env.OriginPort,
		OriginAddress:     env.OriginAddress,
		SendTime:          env.SendTime,
		ReceivedTime:      env.ReceivedTime,
		ReplyTime:         env.ReplyTime,
		ReplyReceivedTime: env.ReplyReceivedTime,
		TimeoutMs:         env.TimeoutMs,
		Direction:         env.Direction,
	}

	// 原样发送的 JSON 值不做 HTML 转义，接收方得到的文本与 Data 一致
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal 反序列化信封
func (JSON) Unmarshal(raw []byte) (*types.Envelope, error) {
	var w jsonEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	data, err := decodeJSONData(w.Data)
	if err != nil {
		return nil, err
	}
	return &types.Envelope{
		Data:              data,
		ID:                w.ID,
		OriginPort:        w.OriginPort,
		OriginAddress:     w.OriginAddress,
		SendTime:          w.SendTime,
		ReceivedTime:      w.ReceivedTime,
		ReplyTime:         w.ReplyTime,
		ReplyReceivedTime: w.ReplyReceivedTime,
		TimeoutMs:         w.TimeoutMs,
		Direction:         w.Direction,
	}, nil
}

func encodeJSONData(data []byte) (json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: data is not UTF-8 text (%d bytes)", ErrEncode, len(data))
	}
	if isRawJSON(data) {
		return json.RawMessage(data), nil
	}
	s, err := json.Marshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return s, nil
}

// isRawJSON 判断 data 能否原样作为 JSON 值发送
//
// 字符串字面量与 null 不能原样发送，否则接收方得到的 Data 会不同。
func isRawJSON(data []byte) bool {
	if !json.Valid(data) || !bytes.Equal(bytes.TrimSpace(data), data) {
		return false
	}
	return data[0] != '"' && !bytes.Equal(data, []byte("null"))
}

func decodeJSONData(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrDecode, err)
		}
		return []byte(s), nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}
