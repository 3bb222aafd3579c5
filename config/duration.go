package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var errNegativeDuration = errors.New("duration must not be negative")

// Duration 配置中的时长
//
// JSON 中可写为字符串 "250ms"、"10s"，或整数毫秒数 250。
// 与信封中 timeout 字段的单位一致。
type Duration time.Duration

// UnmarshalJSON 解析字符串或整数毫秒
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v time.Duration

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err = time.ParseDuration(s); err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
	} else {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("duration must be a string such as \"10s\" or integer milliseconds, got %s", data)
		}
		v = time.Duration(ms) * time.Millisecond
	}

	if v < 0 {
		return fmt.Errorf("%w: %s", errNegativeDuration, v)
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON 输出字符串形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Duration 返回 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
