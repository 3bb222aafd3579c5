package types

// PoolStats 运行统计快照
type PoolStats struct {
	// PoolSize 当前出站连接数
	PoolSize int

	// PoolCapacity 连接池容量，0 表示不限
	PoolCapacity int

	// InboundConns 当前入站连接数，未监听时为 0
	InboundConns int

	// Pending 等待响应的请求数
	Pending int

	// TimedOut 超时登记表中的条目数
	TimedOut int

	// OutstandingSends 正在写入的发送数
	OutstandingSends int64

	// OutstandingReceives 正在分发的入站消息数
	OutstandingReceives int64

	// 累计计数
	TotalSent     uint64
	TotalReceived uint64
	TotalTimeouts uint64
	LateReplies   uint64
	Dials         uint64
	Evictions     uint64
}
