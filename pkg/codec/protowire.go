package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/shardus/lib-net/pkg/types"
)

// ProtoWireName protowire 序列化器名称
const ProtoWireName = "protowire"

// 字段编号
const (
	fieldData              protowire.Number = 1
	fieldID                protowire.Number = 2
	fieldOriginPort        protowire.Number = 3
	fieldOriginAddress     protowire.Number = 4
	fieldSendTime          protowire.Number = 5
	fieldReceivedTime      protowire.Number = 6
	fieldReplyTime         protowire.Number = 7
	fieldReplyReceivedTime protowire.Number = 8
	fieldTimeout           protowire.Number = 9
	fieldDirection         protowire.Number = 10
)

// ProtoWire 二进制序列化器
//
// 与如下 proto3 消息线格式兼容：
//
//	message Envelope {
//	  bytes  data = 1;
//	  string id = 2;
//	  int64  origin_port = 3;
//	  string origin_address = 4;
//	  int64  send_time = 5;
//	  int64  received_time = 6;
//	  int64  reply_time = 7;
//	  int64  reply_received_time = 8;
//	  int64  timeout = 9;
//	  string direction = 10;
//	}
type ProtoWire struct{}

// Name 返回序列化器名称
func (ProtoWire) Name() string { return ProtoWireName }

// Marshal 序列化信封
func (ProtoWire) Marshal(env *types.Envelope) ([]byte, error) {
	var b []byte
	if len(env.Data) > 0 {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, env.Data)
	}
	b = appendString(b, fieldID, env.ID)
	b = appendInt(b, fieldOriginPort, int64(env.OriginPort))
	b = appendString(b, fieldOriginAddress, env.OriginAddress)
	b = appendInt(b, fieldSendTime, env.SendTime)
	b = appendInt(b, fieldReceivedTime, env.ReceivedTime)
	b = appendInt(b, fieldReplyTime, env.ReplyTime)
	b = appendInt(b, fieldReplyReceivedTime, env.ReplyReceivedTime)
	b = appendInt(b, fieldTimeout, env.TimeoutMs)
	b = appendString(b, fieldDirection, string(env.Direction))
	return b, nil
}

// Unmarshal 反序列化信封
//
// 未知字段被跳过。
func (ProtoWire) Unmarshal(data []byte) (*types.Envelope, error) {
	env := &types.Envelope{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case typ == protowire.BytesType && (num == fieldData || num == fieldID || num == fieldOriginAddress || num == fieldDirection):
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldData:
				env.Data = append([]byte(nil), v...)
			case fieldID:
				env.ID = string(v)
			case fieldOriginAddress:
				env.OriginAddress = string(v)
			case fieldDirection:
				env.Direction = types.Direction(v)
			}

		case typ == protowire.VarintType && num >= fieldOriginPort && num <= fieldTimeout && num != fieldOriginAddress:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			data = data[n:]
			switch num {
			case fieldOriginPort:
				env.OriginPort = int(int64(v))
			case fieldSendTime:
				env.SendTime = int64(v)
			case fieldReceivedTime:
				env.ReceivedTime = int64(v)
			case fieldReplyTime:
				env.ReplyTime = int64(v)
			case fieldReplyReceivedTime:
				env.ReplyReceivedTime = int64(v)
			case fieldTimeout:
				env.TimeoutMs = int64(v)
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return env, nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendInt(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}
