package libnet

import (
	"errors"

	"github.com/shardus/lib-net/config"
	"github.com/shardus/lib-net/internal/core/correlator"
	"github.com/shardus/lib-net/internal/core/framing"
	"github.com/shardus/lib-net/internal/core/header"
	"github.com/shardus/lib-net/internal/core/pool"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 构造与生命周期
	// ────────────────────────────────────────────────────────────────────────

	// ErrConfiguration 配置无效
	ErrConfiguration = config.ErrInvalidConfig

	// ErrClosed Messenger 已关闭
	ErrClosed = errors.New("libnet: messenger closed")

	// ErrAlreadyListening 已在监听
	ErrAlreadyListening = errors.New("libnet: already listening")

	// ErrNotListening 未在监听，或句柄不属于当前监听
	ErrNotListening = errors.New("libnet: not listening")

	// ────────────────────────────────────────────────────────────────────────
	// 发送
	// ────────────────────────────────────────────────────────────────────────

	// ErrConnect 建立连接失败
	ErrConnect = pool.ErrConnect

	// ErrWrite 写入失败
	ErrWrite = pool.ErrWrite

	// ErrInvalidTimeout ask 需要正的超时时间
	ErrInvalidTimeout = errors.New("libnet: ask requires a positive timeout")

	// ErrMismatchedDestinations 端口与地址数量不一致
	ErrMismatchedDestinations = errors.New("libnet: ports and addresses differ in length")

	// ────────────────────────────────────────────────────────────────────────
	// 接收与关联
	// ────────────────────────────────────────────────────────────────────────

	// ErrFrameDecode 帧解码失败（连接被关闭）
	ErrFrameDecode = framing.ErrFrameTooLarge

	// ErrInvalidHeader 头部无法解析（帧被丢弃）
	ErrInvalidHeader = header.ErrInvalidHeader

	// ErrTimeout 请求超时，仅 Request 返回
	ErrTimeout = correlator.ErrTimeout

	// ErrLateReply 迟到响应，仅用于日志分类
	ErrLateReply = correlator.ErrLateReply

	// ErrUnsigned 消息没有签名，或本端未启用头部模式
	ErrUnsigned = errors.New("libnet: message is not signed")
)
