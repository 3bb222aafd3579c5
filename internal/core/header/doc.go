// Package header 实现版本化消息头子协议
//
// 带头部的帧负载：
//
//	[0x01][version u8][u32 hlen][header][u32 dlen][data][u32 olen][owner][u32 slen][sig]
//
// 所有长度均为小端。首字节 0x01 是唯一的区分标记，无头部的帧直接承载
// 序列化后的信封（JSON 以 '{' 开头，protowire 以字段标签开头），两者不会混淆。
//
// 引擎只负责携带 Sign 与压缩标签，不做验签也不做解压。
package header
