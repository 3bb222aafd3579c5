// Package framing 实现 TCP 字节流上的长度前缀分帧
//
// 帧格式：
//
//	[4 字节长度，大端][负载]
//
// Decoder 是有状态的，一个 TCP 连接对应一个 Decoder。
// 任意切分的输入都能还原出原始帧序列；零长度帧合法。
package framing
