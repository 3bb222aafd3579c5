package framing

import (
	"errors"
	"fmt"
)

// ErrFrameTooLarge 声明的帧长度超过上限
var ErrFrameTooLarge = errors.New("framing: frame too large")

// DecodeError 帧解码错误
//
// 出现后该连接的字节流已无法对齐，调用方应关闭连接。
type DecodeError struct {
	// Length 声明的帧长度
	Length uint32
	// Max 允许的上限
	Max uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("framing: declared length %d exceeds limit %d", e.Length, e.Max)
}

// Unwrap 使 errors.Is(err, ErrFrameTooLarge) 成立
func (e *DecodeError) Unwrap() error {
	return ErrFrameTooLarge
}
