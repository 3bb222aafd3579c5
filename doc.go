// Package libnet 提供基于 TCP 的点对点请求/响应消息
//
// 一个 Messenger 就是一个完整的消息上下文：出站连接池、请求关联器、
// 监听器与指标都归它所有，同一进程内的多个 Messenger 互不影响。
//
// # 快速开始
//
//	cfg := config.NewConfig().WithPort(9001)
//	m, err := libnet.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	// 服务端
//	_, err = m.Listen(ctx, func(req *libnet.Request) {
//	    req.Respond(ctx, []byte("pong"))
//	})
//
//	// 客户端：回调形式
//	err = m.Send(ctx, 9002, "10.0.0.2", []byte("ping"), 3*time.Second,
//	    func(r *types.Reply) { ... },
//	    func() { ... },
//	)
//
//	// 客户端：阻塞形式
//	reply, err := m.Request(ctx, 9002, "10.0.0.2", []byte("ping"), 3*time.Second)
//
// # 消息方向
//
//   - timeout > 0 的发送是 ask，登记等待响应
//   - timeout <= 0 的发送是 tell，不登记
//   - Request.Respond 发出 resp，路由到对方声明的监听端口
//
// resp 永远不会交给 Handler：匹配的完成请求，迟到的与无法关联的只记录日志。
//
// # 头部模式
//
// config.Header.Version 为 1 时，SendWithHeader 与 MultiSendWithHeader
// 发送带 v1 头部的帧；为 0 时退化为普通发送。任何 Messenger 都能接收两种帧。
package libnet
