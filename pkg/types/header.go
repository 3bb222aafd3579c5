package types

import "fmt"

// ============================================================================
//                              Compression - 压缩类型
// ============================================================================

// Compression 负载压缩类型
//
// 仅作为标签随头部传递，引擎本身不压缩数据。数值与线上格式一致。
type Compression uint32

const (
	// CompressionNone 未压缩
	CompressionNone Compression = 0
	// CompressionGzip gzip
	CompressionGzip Compression = 1
	// CompressionBrotli brotli
	CompressionBrotli Compression = 2
	// CompressionZstd zstd
	CompressionZstd Compression = 3
)

// String 返回压缩类型的字符串表示
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(c))
	}
}

// ============================================================================
//                              Header - 消息头
// ============================================================================

// Header 版本化消息头（v1）
type Header struct {
	// ID 消息 ID，与信封 ID 相同
	ID string

	// SenderID 发送方标识
	SenderID string

	// TrackerID 跟踪 ID
	TrackerID string

	// VerificationData 校验数据（不透明）
	VerificationData string

	// Compression 负载压缩标签
	Compression Compression

	// MessageLength 负载长度，编码时自动填充
	MessageLength uint32
}

// ============================================================================
//                              Sign - 签名
// ============================================================================

// Sign 消息签名
//
// 引擎只负责携带，不做校验。
type Sign struct {
	// Owner 签名者公钥
	Owner []byte

	// Sig 签名
	Sig []byte
}

// IsEmpty 检查签名是否为空
func (s Sign) IsEmpty() bool {
	return len(s.Owner) == 0 && len(s.Sig) == 0
}
