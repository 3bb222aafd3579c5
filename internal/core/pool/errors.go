package pool

import "errors"

// 错误定义
var (
	// ErrConnect 建立连接失败
	ErrConnect = errors.New("pool: connect failed")

	// ErrWrite 写入失败（已重连一次）
	ErrWrite = errors.New("pool: write failed")

	// ErrConnClosed 连接已被移出连接池
	ErrConnClosed = errors.New("pool: connection closed")

	// ErrPoolClosed 连接池已关闭
	ErrPoolClosed = errors.New("pool: pool closed")
)
