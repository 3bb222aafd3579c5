// Package main 提供 libnet 的演示程序
//
// 三种模式：
//   - server：回显服务，对每个 ask 回复 "pong:" 加原负载
//   - client：向服务端发送 ping 并打印往返耗时
//   - bomb：多个客户端并发向服务端发送 tell，统计成功与失败次数
//
// -compress 压缩负载并在 v1 头部中携带压缩标签，服务端按标签解压，
// 并以相同算法压缩回复。压缩后的负载是二进制，需要 -codec protowire，
// 服务端也要以 -header -codec protowire 启动：
//
//	libnet-echo -mode server -header -codec protowire
//	libnet-echo -mode client -port 49153 -compress zstd -codec protowire
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	libnet "github.com/shardus/lib-net"
	"github.com/shardus/lib-net/config"
	"github.com/shardus/lib-net/pkg/codec"
	"github.com/shardus/lib-net/pkg/lib/compress"
	"github.com/shardus/lib-net/pkg/lib/crypto"
	"github.com/shardus/lib-net/pkg/lib/log"
	"github.com/shardus/lib-net/pkg/types"
)

var logger = log.Logger("libnet/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	mode       = flag.String("mode", "server", "运行模式 (server/client/bomb)")
	port       = flag.Int("port", 49152, "本地监听端口")
	address    = flag.String("address", "127.0.0.1", "本地监听地址")
	configFile = flag.String("config", "", "JSON 配置文件路径")
	serializer = flag.String("codec", codec.JSONName, "信封编码 (json/protowire)")
	header     = flag.Bool("header", false, "启用 v1 头部")
	compressor = flag.String("compress", "none", "负载压缩 (none/gzip/brotli/zstd)，需要 -codec protowire")
	seedHex    = flag.String("seed", "", "ed25519 私钥种子（64 位十六进制），设置后对头部签名")

	targetPort = flag.Int("target-port", 49152, "目标端口（client/bomb）")
	targetAddr = flag.String("target", "127.0.0.1", "目标地址（client/bomb）")
	count      = flag.Int("n", 10, "每个客户端发送的消息数")
	timeout    = flag.Duration("timeout", 5*time.Second, "ask 超时时间")

	clients   = flag.Int("clients", 64, "bomb 模式的客户端数")
	firstPort = flag.Int("first-port", 49153, "bomb 模式客户端的起始端口")

	metricsAddr = flag.String("metrics", "", "Prometheus 指标监听地址（如 :9100），空表示不启用")
	verbose     = flag.Bool("v", false, "输出调试日志与 Fx 日志")
)

// compression 由 -compress 解析
var compression types.Compression

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *verbose {
		log.SetOutputWithLevel(os.Stderr, log.LevelDebug)
	}

	var err error
	if compression, err = compress.Parse(*compressor); err != nil {
		return err
	}
	if compression != types.CompressionNone {
		if *serializer != codec.ProtoWireName {
			return fmt.Errorf("-compress %s 需要 -codec %s", compression, codec.ProtoWireName)
		}
		// 压缩标签只能随头部传递
		*header = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "server":
		return runServer(ctx)
	case "client":
		return runClient(ctx)
	case "bomb":
		return runBomb(ctx)
	default:
		return fmt.Errorf("未知模式: %s", *mode)
	}
}

// loadConfig 按命令行参数构建配置
func loadConfig(listenPort int) (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}
	cfg.WithPort(listenPort).WithAddress(*address)
	if *header {
		cfg.Header.Version = config.HeaderV1
	}
	return config.ValidateAndFix(cfg)
}

func options() ([]libnet.Option, error) {
	s, err := codec.ByName(*serializer)
	if err != nil {
		return nil, err
	}
	opts := []libnet.Option{libnet.WithSerializer(s)}
	if *seedHex != "" {
		seed, err := hex.DecodeString(*seedHex)
		if err != nil {
			return nil, fmt.Errorf("-seed: %w", err)
		}
		signer, err := crypto.NewEd25519SignerFromSeed(seed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libnet.WithSigner(signer))
	}
	return opts, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// server
// ═══════════════════════════════════════════════════════════════════════════

func runServer(ctx context.Context) error {
	cfg, err := loadConfig(*port)
	if err != nil {
		return err
	}
	opts, err := options()
	if err != nil {
		return err
	}

	zl := zap.NewNop()
	if *verbose {
		if zl, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	var m *libnet.Messenger
	app := fx.New(
		libnet.FxLogger(zl),
		libnet.Module(cfg, opts...),
		fx.Provide(func() libnet.Handler { return pong }),
		fx.Populate(&m),
	)
	if err := app.Start(ctx); err != nil {
		return err
	}

	srv := serveMetrics(m)
	fmt.Printf("回显服务已启动: %s\n", m.Addr())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srv != nil {
		_ = srv.Shutdown(stopCtx)
	}
	return app.Stop(stopCtx)
}

func pong(req *libnet.Request) {
	if !req.IsAsk() {
		logger.Debug("收到 tell", "remote", req.Remote.String(), "len", len(req.Data))
		return
	}

	c := types.CompressionNone
	if req.Header != nil {
		c = req.Header.Compression
	}
	if req.Sign != nil {
		if err := req.VerifySign(); err != nil {
			logger.Warn("签名无效，不回复", "remote", req.Remote.String(), "err", err)
			return
		}
	}
	data, err := compress.Decompress(c, req.Data)
	if err != nil {
		logger.Warn("解压失败", "remote", req.Remote.String(), "compression", c.String(), "err", err)
		return
	}

	reply, err := compress.Compress(c, append([]byte("pong:"), data...))
	if err != nil {
		logger.Warn("压缩回复失败", "compression", c.String(), "err", err)
		return
	}
	if err := req.RespondWithHeader(context.Background(), reply, payloadHeader(c)); err != nil {
		logger.Warn("回复失败", "remote", req.Remote.String(), "err", err)
	}
}

// payloadHeader 返回携带压缩标签的头部，未压缩时为 nil
func payloadHeader(c types.Compression) *types.Header {
	if c == types.CompressionNone {
		return nil
	}
	return &types.Header{SenderID: "libnet-echo", Compression: c}
}

// serveMetrics 按需启动指标 HTTP 服务
func serveMetrics(m *libnet.Messenger) *http.Server {
	if *metricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务退出", "err", err)
		}
	}()
	return srv
}

// ═══════════════════════════════════════════════════════════════════════════
// client
// ═══════════════════════════════════════════════════════════════════════════

func runClient(ctx context.Context) error {
	cfg, err := loadConfig(*port)
	if err != nil {
		return err
	}
	opts, err := options()
	if err != nil {
		return err
	}

	m, err := libnet.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer m.Close()

	// 响应发往本端监听端口
	h, err := m.Listen(ctx, nil)
	if err != nil {
		return err
	}
	defer m.StopListening(context.Background(), h)

	for i := 0; i < *count; i++ {
		payload := []byte(fmt.Sprintf("ping %d", i))
		reply, err := ping(ctx, m, payload)
		switch {
		case errors.Is(err, libnet.ErrTimeout):
			fmt.Printf("#%d 超时\n", i)
		case err != nil:
			return err
		default:
			fmt.Printf("#%d %s rtt=%s\n", i, reply.Data, reply.RTT)
		}
	}

	s := m.Stats()
	fmt.Printf("sent=%d received=%d timeouts=%d late=%d\n", s.TotalSent, s.TotalReceived, s.TotalTimeouts, s.LateReplies)
	return nil
}

// ping 按 -compress 压缩负载后发送 ask，返回解压后的回复
func ping(ctx context.Context, m *libnet.Messenger, payload []byte) (*types.Reply, error) {
	if compression == types.CompressionNone {
		return m.Request(ctx, *targetPort, *targetAddr, payload, *timeout)
	}

	packed, err := compress.Compress(compression, payload)
	if err != nil {
		return nil, err
	}
	ch := make(chan *types.Reply, 1)
	err = m.SendWithHeader(ctx, *targetPort, *targetAddr, packed, payloadHeader(compression), *timeout,
		func(r *types.Reply) { ch <- r },
		func() { ch <- &types.Reply{TimedOut: true} })
	if err != nil {
		return nil, err
	}

	var reply *types.Reply
	select {
	case reply = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if reply.TimedOut {
		return nil, libnet.ErrTimeout
	}

	c := types.CompressionNone
	if reply.Header != nil {
		c = reply.Header.Compression
	}
	if reply.Data, err = compress.Decompress(c, reply.Data); err != nil {
		return nil, err
	}
	return reply, nil
}
