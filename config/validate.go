package config

import "fmt"

// ValidateAll 验证整个配置的有效性
//
// 与 Config.Validate 相同，额外处理 nil。
func ValidateAll(c *Config) error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并修复可自动修复的问题
//
// 可修复的问题：
//   - 地址为空 -> 使用 0.0.0.0
//   - 启用上限但容量为 0 -> 使用默认容量
//   - 超时、容量类字段为 0 -> 使用默认值
//
// 端口缺失无法修复，仍返回错误。
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.Pool.Enabled && c.Pool.MaxSize <= 0 {
		c.Pool.MaxSize = DefaultPoolSize
	}

	def := NewConfig()
	if c.Transport.DialTimeout <= 0 {
		c.Transport.DialTimeout = def.Transport.DialTimeout
	}
	if c.Transport.MaxFrameSize == 0 {
		c.Transport.MaxFrameSize = def.Transport.MaxFrameSize
	}
	if c.Correlator.TimedOutRetention <= 0 {
		c.Correlator.TimedOutRetention = def.Correlator.TimedOutRetention
	}
	if c.Correlator.TimedOutRegistrySize <= 0 {
		c.Correlator.TimedOutRegistrySize = def.Correlator.TimedOutRegistrySize
	}
	if c.Correlator.DiagnosticsPerSecond <= 0 {
		c.Correlator.DiagnosticsPerSecond = def.Correlator.DiagnosticsPerSecond
	}
	if c.Fanout.Concurrency <= 0 {
		c.Fanout.Concurrency = def.Fanout.Concurrency
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
