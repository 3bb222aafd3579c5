package header

import (
	"errors"
	"fmt"
)

// 错误定义
//
// 所有解析失败都满足 errors.Is(err, ErrInvalidHeader)。
var (
	// ErrInvalidHeader 头部或消息体无法解析
	ErrInvalidHeader = errors.New("header: invalid header")

	// ErrUnsupportedVersion 不支持的头部版本
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrInvalidHeader)

	// ErrLengthMismatch 头部声明的长度与负载不符
	ErrLengthMismatch = fmt.Errorf("%w: message length mismatch", ErrInvalidHeader)
)
