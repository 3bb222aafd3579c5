package codec

import (
	"errors"
	"fmt"

	"github.com/shardus/lib-net/pkg/interfaces"
)

// 错误定义
var (
	// ErrEncode 信封无法按该格式序列化
	ErrEncode = errors.New("codec: encode envelope")

	// ErrDecode 信封解析失败
	ErrDecode = errors.New("codec: decode envelope")

	// ErrUnknownCodec 未知的序列化器名称
	ErrUnknownCodec = errors.New("codec: unknown codec")
)

// ByName 按名称返回序列化器
func ByName(name string) (interfaces.Serializer, error) {
	switch name {
	case "", JSONName:
		return JSON{}, nil
	case ProtoWireName:
		return ProtoWire{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}
