package log

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	cfg := ParseEnv("core/pool=debug, core/listener=warn,info", "json")

	assert.True(t, cfg.HasDefault)
	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	assert.Equal(t, FormatJSON, cfg.Format)

	level, ok := cfg.levelFor("core/pool")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, level)

	level, ok = cfg.levelFor("core/listener")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	level, ok = cfg.levelFor("core/correlator")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestParseEnv_Empty(t *testing.T) {
	cfg := ParseEnv("", "")

	assert.False(t, cfg.HasDefault)
	assert.Equal(t, FormatText, cfg.Format)
	_, ok := cfg.levelFor("anything")
	assert.False(t, ok)
}

func TestParseEnv_IgnoresUnknownLevels(t *testing.T) {
	cfg := ParseEnv("core/pool=loud,verbose", "")

	assert.False(t, cfg.HasDefault)
	assert.Empty(t, cfg.SubsystemLevels)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", TruncateID("abc", 8))
	assert.Equal(t, "01234567", TruncateID("0123456789", 8))
}
