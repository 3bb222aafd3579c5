package crypto

import "errors"

// 错误定义
var (
	// ErrInvalidKeySize 密钥长度无效
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrInvalidSignature 签名无效
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)
