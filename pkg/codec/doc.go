// Package codec 提供信封序列化器
//
//   - JSON: 默认，字段名与现有节点一致
//   - ProtoWire: protobuf 线格式的紧凑编码，不依赖生成代码
//
// 两种编码的输出都不会以 0x01 开头，可以与带头部的帧共存。
package codec
