package types

import (
	"fmt"
	"time"
)

// ============================================================================
//                              Direction - 消息方向
// ============================================================================

// Direction 消息方向
type Direction string

const (
	// DirAsk 请求，期待响应
	DirAsk Direction = "ask"
	// DirTell 单向通知
	DirTell Direction = "tell"
	// DirResp 对 ask 的响应
	DirResp Direction = "resp"
)

// IsValid 检查方向是否为已知取值
func (d Direction) IsValid() bool {
	switch d {
	case DirAsk, DirTell, DirResp:
		return true
	}
	return false
}

// ============================================================================
//                              Envelope - 信封
// ============================================================================

// Envelope 线上信封
//
// 线上编码由 interfaces.Serializer 决定，默认的 codec.JSON 与现有节点互通。
type Envelope struct {
	// Data 应用负载（不透明）
	Data []byte

	// ID 关联 ID，resp 携带其所响应的 ask 的 ID
	ID string

	// OriginPort 发送方监听端口，响应发往此端口
	OriginPort int

	// OriginAddress 发送方声明的监听地址
	OriginAddress string

	// 时间戳，毫秒
	SendTime          int64
	ReceivedTime      int64
	ReplyTime         int64
	ReplyReceivedTime int64

	// TimeoutMs 发送方等待响应的时长，0 表示未声明
	TimeoutMs int64

	// Direction 消息方向
	Direction Direction
}

// Deadline 返回发送方放弃等待的时间点
//
// 发送方未声明超时时返回 false。
func (e *Envelope) Deadline() (time.Time, bool) {
	if e.TimeoutMs <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(e.SendTime + e.TimeoutMs), true
}

// Expired 检查发送方是否已不再等待响应
//
// tell 总是视为过期。未声明超时的 ask 与无方向信封来自不发送 timeout 字段的
// 现有节点，视为一直在等待。
func (e *Envelope) Expired(now time.Time) bool {
	if e.Direction == DirTell {
		return true
	}
	deadline, ok := e.Deadline()
	if !ok {
		return false
	}
	return !now.Before(deadline)
}

// String 返回信封的简要描述
func (e *Envelope) String() string {
	return fmt.Sprintf("Envelope{id=%s dir=%s origin=%s:%d len=%d}",
		e.ID, e.Direction, e.OriginAddress, e.OriginPort, len(e.Data))
}
