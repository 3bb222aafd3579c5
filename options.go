package libnet

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shardus/lib-net/pkg/codec"
	"github.com/shardus/lib-net/pkg/interfaces"
)

// Option 构造选项
type Option func(*options) error

type options struct {
	serializer interfaces.Serializer
	signer     interfaces.Signer
	clock      clock.Clock
	registerer prometheus.Registerer
}

func defaultOptions() options {
	return options{
		serializer: codec.JSON{},
		clock:      clock.New(),
	}
}

// WithSerializer 设置信封序列化器，默认 codec.JSON
func WithSerializer(s interfaces.Serializer) Option {
	return func(o *options) error {
		if s == nil {
			return errors.New("libnet: nil serializer")
		}
		o.serializer = s
		return nil
	}
}

// WithSigner 设置带头部消息的签名器
//
// 未设置时带头部的消息签名为空。
func WithSigner(s interfaces.Signer) Option {
	return func(o *options) error {
		o.signer = s
		return nil
	}
}

// WithClock 设置时钟（测试用）
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("libnet: nil clock")
		}
		o.clock = c
		return nil
	}
}

// WithRegisterer 将指标额外注册到 r
//
// 不设置时指标只在 Messenger.Registry() 中可见。
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = r
		return nil
	}
}
