// Package pool 管理到远端监听地址的出站长连接
//
// 每个目的地 "address:port" 最多对应一个 Conn。Acquire 从不拨号也从不失败，
// 首次 Send 时才建立 TCP 连接。
//
// 移出连接池的情形：
//   - 超出容量时淘汰最久未使用的连接（启用上限时）
//   - 对端关闭或套接字出错
//   - 调用方 Evict
//
// 被移出的连接立即关闭，下一次 Acquire 会得到新的 Conn。
//
// 出站连接只负责写，不解析对端发来的数据；响应通过对端新建的连接
// 送达本地监听端口。
package pool
