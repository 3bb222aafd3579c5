package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量
const (
	// EnvLogLevel 日志级别，支持按子系统配置
	// 格式: 子系统=级别,子系统=级别,默认级别
	// 示例: core/pool=debug,core/listener=warn,info
	EnvLogLevel = "LIBNET_LOG_LEVEL"

	// EnvLogFormat 日志格式 (text 或 json)
	EnvLogFormat = "LIBNET_LOG_FORMAT"
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// EnvConfig 从环境变量解析出的日志配置
type EnvConfig struct {
	// DefaultLevel 默认日志级别，HasDefault 为 false 时不生效
	DefaultLevel slog.Level
	HasDefault   bool

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format Format
}

func (c *EnvConfig) levelFor(component string) (slog.Level, bool) {
	if level, ok := c.SubsystemLevels[component]; ok {
		return level, true
	}
	return c.DefaultLevel, c.HasDefault
}

var (
	envCache *EnvConfig
	envOnce  sync.Once
	envMu    sync.Mutex
)

func envConfig() *EnvConfig {
	envMu.Lock()
	defer envMu.Unlock()
	envOnce.Do(func() {
		envCache = ParseEnv(os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat))
	})
	return envCache
}

// ParseEnv 解析日志级别与格式字符串
func ParseEnv(levelStr, formatStr string) *EnvConfig {
	cfg := &EnvConfig{
		SubsystemLevels: make(map[string]slog.Level),
	}

	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, lvl, ok := strings.Cut(part, "="); ok {
			if level, ok := parseLevel(lvl); ok {
				cfg.SubsystemLevels[strings.TrimSpace(name)] = level
			}
			continue
		}
		if level, ok := parseLevel(part); ok {
			cfg.DefaultLevel = level
			cfg.HasDefault = true
		}
	}

	if strings.EqualFold(strings.TrimSpace(formatStr), "json") {
		cfg.Format = FormatJSON
	}
	return cfg
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
