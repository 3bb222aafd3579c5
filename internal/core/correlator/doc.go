// Package correlator 关联 ask 与其 resp
//
// 每个 timeout > 0 的 ask 登记一个 PendingRequest，状态转换：
//
//	NONE -> PENDING -> COMPLETED  （收到匹配的 resp）
//	                -> TIMED_OUT  （定时器先到）
//
// 两个终态互斥：谁先在锁内把请求从 pending 表删除，谁就负责回调，
// 另一方什么也不做。
//
// 超时的 ID 进入超时登记表并保留一段时间（默认 60s），在此期间到达的
// resp 被识别为迟到响应，只计数和记录日志，不会回调也不会交给 Handler。
// 登记项在第一次命中后删除。
package correlator
