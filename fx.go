package libnet

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/shardus/lib-net/config"
)

// Params Messenger 依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`

	// Handler 存在时在启动阶段开始监听
	Handler Handler `optional:"true"`
}

// Result Messenger 模块输出
type Result struct {
	fx.Out

	Messenger *Messenger
}

// Module 返回 Messenger 的 Fx 模块
//
// 图中没有 *config.Config 时使用 cfg。提供了 Handler 时，
// OnStart 开始监听，OnStop 关闭 Messenger。
func Module(cfg *config.Config, opts ...Option) fx.Option {
	return fx.Module("libnet",
		fx.Provide(func(p Params, lc fx.Lifecycle) (Result, error) {
			c := p.Config
			if c == nil {
				c = cfg
			}
			m, err := New(c, opts...)
			if err != nil {
				return Result{}, err
			}

			var handle *ServerHandle
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if p.Handler == nil {
						return nil
					}
					h, err := m.Listen(ctx, p.Handler)
					if err != nil {
						return err
					}
					handle = h
					logger.Info("Messenger 已开始监听", "addr", h.Addr())
					return nil
				},
				OnStop: func(ctx context.Context) error {
					if handle != nil {
						if err := m.StopListening(ctx, handle); err != nil {
							logger.WarnContext(ctx, "停止监听失败", "err", err)
						}
					}
					return m.Close()
				},
			})
			return Result{Messenger: m}, nil
		}),
	)
}

// FxLogger 返回 Fx 事件日志选项
//
// l 为 nil 时不输出 Fx 日志。
func FxLogger(l *zap.Logger) fx.Option {
	if l == nil {
		l = zap.NewNop()
	}
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: l}
	})
}
