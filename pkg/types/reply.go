package types

import (
	"net"
	"strconv"
	"time"
)

// RemoteSender 入站消息的来源
type RemoteSender struct {
	// Address 套接字对端 IP
	Address string

	// Port 套接字对端端口（通常为临时端口）
	Port int
}

// String 返回 "address:port"
func (r RemoteSender) String() string {
	return net.JoinHostPort(r.Address, strconv.Itoa(r.Port))
}

// Reply ask 的结果
//
// TimedOut 为 true 时其余字段为空。
type Reply struct {
	// Data 响应负载
	Data []byte

	// Envelope 响应信封
	Envelope *Envelope

	// Header 响应头，无头部时为 nil
	Header *Header

	// Sign 响应签名，无头部时为 nil
	Sign *Sign

	// TimedOut 是否超时
	TimedOut bool

	// RTT 往返耗时
	RTT time.Duration
}

// MultiSendResult 扇出发送结果
type MultiSendResult struct {
	// ID 本次扇出共用的消息 ID
	ID string

	// Sent 写入成功的目的地数
	Sent int

	// Failed 写入失败的目的地，key 为 "address:port"
	Failed map[string]error
}

// OK 检查是否全部写入成功
func (r *MultiSendResult) OK() bool {
	return len(r.Failed) == 0
}
