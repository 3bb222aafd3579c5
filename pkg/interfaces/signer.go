package interfaces

import "github.com/shardus/lib-net/pkg/types"

// Signer 消息签名接口
//
// 对带头部的消息，输入为未签名部分的序列化结果。
type Signer interface {
	Sign(payload []byte) (types.Sign, error)
}
