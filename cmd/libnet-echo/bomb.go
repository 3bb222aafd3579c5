package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	libnet "github.com/shardus/lib-net"
)

// bombStats 压测计数
type bombStats struct {
	ok     atomic.Int64
	failed atomic.Int64
}

// runBomb 创建多个客户端，每轮每个客户端向目标发送一条 tell
func runBomb(ctx context.Context) error {
	opts, err := options()
	if err != nil {
		return err
	}

	senders := make([]*libnet.Messenger, 0, *clients)
	defer func() {
		var errs error
		for _, m := range senders {
			errs = multierr.Append(errs, m.Close())
		}
		if errs != nil {
			logger.Warn("关闭客户端失败", "err", errs)
		}
	}()
	for i := 0; i < *clients; i++ {
		cfg, err := loadConfig(*firstPort + i)
		if err != nil {
			return err
		}
		m, err := libnet.New(cfg, opts...)
		if err != nil {
			return err
		}
		senders = append(senders, m)
	}
	fmt.Printf("已创建 %d 个客户端\n", len(senders))

	var stats bombStats
	payload := []byte(`{"route":"bombardment-test","payload":"Hello, world!"}`)
	start := time.Now()

	for round := 0; round < *count && ctx.Err() == nil; round++ {
		g, gctx := errgroup.WithContext(ctx)
		for _, m := range senders {
			m := m
			g.Go(func() error {
				if err := m.Send(gctx, *targetPort, *targetAddr, payload, 0, nil, nil); err != nil {
					stats.failed.Add(1)
					logger.Debug("发送失败", "round", round, "err", err)
					return nil
				}
				stats.ok.Add(1)
				return nil
			})
		}
		_ = g.Wait()
	}

	elapsed := time.Since(start)
	total := stats.ok.Load() + stats.failed.Load()
	fmt.Printf("完成: 成功=%d 失败=%d 耗时=%s 速率=%.0f/s\n",
		stats.ok.Load(), stats.failed.Load(), elapsed, float64(total)/elapsed.Seconds())
	return nil
}
