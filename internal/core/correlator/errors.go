package correlator

import "errors"

// 错误定义
var (
	// ErrTimeout 请求超时
	ErrTimeout = errors.New("correlator: request timed out")

	// ErrLateReply 响应在请求超时后到达
	ErrLateReply = errors.New("correlator: late reply ignored")

	// ErrDuplicateID 同一 ID 已在等待中
	ErrDuplicateID = errors.New("correlator: duplicate request id")

	// ErrClosed 关联器已关闭
	ErrClosed = errors.New("correlator: closed")
)
