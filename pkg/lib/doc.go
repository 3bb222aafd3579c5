// Package lib 包含基础设施工具库
//
// 本目录包含与消息引擎无关的通用工具库：
//
//   - log: 日志封装
//   - crypto: 带头部消息的签名与验签
//   - compress: 按头部压缩标签压缩与解压负载
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 可替换组件接口
//   - types/: 公共类型定义
//   - codec/: 信封序列化器
//   - lib/: 基础设施工具库（本目录）
package lib
