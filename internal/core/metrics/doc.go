// Package metrics 提供 lib-net 的运行指标
//
// 每个 Messenger 持有独立的 prometheus.Registry，指标不会写入全局注册表，
// 同一进程内的多个实例互不干扰。需要暴露时把 Registry() 交给 promhttp。
//
// 计数同时维护一份原子副本，供 Snapshot 直接读取。
//
// 所有方法对 nil *Metrics 安全，单独测试组件时可以不创建指标。
package metrics
