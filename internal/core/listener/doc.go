// Package listener 接受入站 TCP 连接并按帧分发
//
// 每个入站连接一个读协程和一个 Decoder，帧按到达顺序在该协程内同步分发，
// 因此同一连接上的消息顺序不变。分发函数阻塞只影响它所在的连接。
//
// 帧解码错误只关闭出错的连接，不影响监听器和其他连接。
package listener
