// Package config 提供 lib-net 的配置管理
//
// 所有组件的配置集中在 Config 中，使用 NewConfig 获取默认值后按需修改，
// 也可以通过 FromJSON 从文件加载。构造 Messenger 前会调用 Validate。
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ════════════════════════════════════════════════════════════════════════════
//                              默认值
// ════════════════════════════════════════════════════════════════════════════

const (
	// DefaultAddress 默认监听地址
	DefaultAddress = "0.0.0.0"

	// DefaultPoolSize 连接池默认容量
	DefaultPoolSize = 1028

	// DefaultMaxFrameSize 单帧最大长度
	DefaultMaxFrameSize = 64 << 20

	// DefaultTimedOutRetention 超时登记保留时长
	DefaultTimedOutRetention = 60 * time.Second

	// DefaultTimedOutRegistrySize 超时登记表容量
	DefaultTimedOutRegistrySize = 65536
)

// Config lib-net 配置
type Config struct {
	// Port 本地监听端口，同时作为 originPort 写入每个出站信封
	Port int `json:"port"`

	// Address 本地监听地址，同时作为 originAddress 写入每个出站信封
	Address string `json:"address"`

	// AllowEphemeralPort 允许 Port 为 0（由系统分配，测试用）
	AllowEphemeralPort bool `json:"allow_ephemeral_port,omitempty"`

	// Pool 出站连接池配置
	Pool PoolConfig `json:"pool"`

	// Header 头部子协议配置
	Header HeaderConfig `json:"header"`

	// Transport 传输配置
	Transport TransportConfig `json:"transport"`

	// Correlator 请求关联配置
	Correlator CorrelatorConfig `json:"correlator"`

	// Fanout 扇出发送配置
	Fanout FanoutConfig `json:"fanout"`
}

// NewConfig 创建默认配置
//
// Port 没有默认值，必须由调用方设置。
func NewConfig() *Config {
	return &Config{
		Address:    DefaultAddress,
		Pool:       DefaultPoolConfig(),
		Header:     DefaultHeaderConfig(),
		Transport:  DefaultTransportConfig(),
		Correlator: DefaultCorrelatorConfig(),
		Fanout:     DefaultFanoutConfig(),
	}
}

// WithPort 设置监听端口
func (c *Config) WithPort(port int) *Config {
	c.Port = port
	return c
}

// WithAddress 设置监听地址
func (c *Config) WithAddress(addr string) *Config {
	c.Address = addr
	return c
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.Port == 0 && !c.AllowEphemeralPort {
		return fmt.Errorf("%w: port is required", ErrInvalidConfig)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if err := c.Header.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Correlator.Validate(); err != nil {
		return err
	}
	return c.Fanout.Validate()
}

// ════════════════════════════════════════════════════════════════════════════
//                              连接池
// ════════════════════════════════════════════════════════════════════════════

// PoolConfig 出站连接池配置
type PoolConfig struct {
	// Enabled 启用 LRU 上限；关闭时连接池不设上限
	Enabled bool `json:"enabled"`

	// MaxSize 最大连接数，Enabled 时必须大于 0
	MaxSize int `json:"max_size"`
}

// DefaultPoolConfig 返回默认连接池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Enabled: true,
		MaxSize: DefaultPoolSize,
	}
}

// Capacity 返回有效容量，0 表示不限
func (c PoolConfig) Capacity() int {
	if !c.Enabled {
		return 0
	}
	return c.MaxSize
}

// Validate 验证连接池配置
func (c PoolConfig) Validate() error {
	if c.Enabled && c.MaxSize <= 0 {
		return fmt.Errorf("%w: pool max size is required when pool limit is enabled", ErrInvalidConfig)
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              头部子协议
// ════════════════════════════════════════════════════════════════════════════

// HeaderV1 当前支持的头部版本
const HeaderV1 = 1

// HeaderConfig 头部子协议配置
type HeaderConfig struct {
	// Version 头部版本，0 表示关闭头部模式
	Version uint8 `json:"version"`
}

// DefaultHeaderConfig 返回默认头部配置（关闭）
func DefaultHeaderConfig() HeaderConfig {
	return HeaderConfig{}
}

// Enabled 头部模式是否开启
func (c HeaderConfig) Enabled() bool {
	return c.Version != 0
}

// Validate 验证头部配置
func (c HeaderConfig) Validate() error {
	if c.Version > HeaderV1 {
		return fmt.Errorf("%w: unsupported header version %d", ErrInvalidConfig, c.Version)
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              传输
// ════════════════════════════════════════════════════════════════════════════

// TransportConfig 传输配置
type TransportConfig struct {
	// DialTimeout 建连超时
	DialTimeout Duration `json:"dial_timeout"`

	// WriteTimeout 单次写超时，0 表示不设
	WriteTimeout Duration `json:"write_timeout"`

	// MaxFrameSize 单帧最大长度，超过视为解码错误
	MaxFrameSize uint32 `json:"max_frame_size"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:  Duration(10 * time.Second),
		WriteTimeout: Duration(30 * time.Second),
		MaxFrameSize: DefaultMaxFrameSize,
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive", ErrInvalidConfig)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: write timeout must not be negative", ErrInvalidConfig)
	}
	if c.MaxFrameSize == 0 {
		return fmt.Errorf("%w: max frame size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              请求关联
// ════════════════════════════════════════════════════════════════════════════

// CorrelatorConfig 请求关联配置
type CorrelatorConfig struct {
	// TimedOutRetention 超时 ID 的保留时长，用于识别迟到响应
	TimedOutRetention Duration `json:"timed_out_retention"`

	// TimedOutRegistrySize 超时登记表容量
	TimedOutRegistrySize int `json:"timed_out_registry_size"`

	// DiagnosticsPerSecond 迟到响应诊断日志的速率上限
	DiagnosticsPerSecond float64 `json:"diagnostics_per_second"`
}

// DefaultCorrelatorConfig 返回默认请求关联配置
func DefaultCorrelatorConfig() CorrelatorConfig {
	return CorrelatorConfig{
		TimedOutRetention:    Duration(DefaultTimedOutRetention),
		TimedOutRegistrySize: DefaultTimedOutRegistrySize,
		DiagnosticsPerSecond: 10,
	}
}

// Validate 验证请求关联配置
func (c CorrelatorConfig) Validate() error {
	if c.TimedOutRetention <= 0 {
		return fmt.Errorf("%w: timed-out retention must be positive", ErrInvalidConfig)
	}
	if c.TimedOutRegistrySize <= 0 {
		return fmt.Errorf("%w: timed-out registry size must be positive", ErrInvalidConfig)
	}
	if c.DiagnosticsPerSecond <= 0 {
		return fmt.Errorf("%w: diagnostics rate must be positive", ErrInvalidConfig)
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              扇出
// ════════════════════════════════════════════════════════════════════════════

// FanoutConfig 扇出发送配置
type FanoutConfig struct {
	// Concurrency 同时写入的目的地数上限
	Concurrency int `json:"concurrency"`
}

// DefaultFanoutConfig 返回默认扇出配置
func DefaultFanoutConfig() FanoutConfig {
	return FanoutConfig{Concurrency: 64}
}

// Validate 验证扇出配置
func (c FanoutConfig) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: fanout concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}
