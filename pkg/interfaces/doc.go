// Package interfaces 定义 lib-net 的可替换组件接口
package interfaces
