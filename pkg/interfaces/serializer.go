package interfaces

import "github.com/shardus/lib-net/pkg/types"

// Serializer 信封序列化接口
//
// 无头部的帧直接承载 Marshal 的输出，因此输出不能以 0x01 开头。
type Serializer interface {
	// Name 返回序列化器名称
	Name() string

	// Marshal 序列化信封
	Marshal(env *types.Envelope) ([]byte, error)

	// Unmarshal 反序列化信封
	Unmarshal(data []byte) (*types.Envelope, error)
}
