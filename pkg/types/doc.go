// Package types 定义 lib-net 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 lib-net 内部包。
//
// # 文件组织
//
//   - envelope.go - Envelope, Direction（线上信封）
//   - header.go   - Header, Compression, Sign（头部子协议）
//   - reply.go    - RemoteSender, Reply, MultiSendResult
//   - stats.go    - PoolStats
package types
