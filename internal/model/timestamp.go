package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// 早期数据文件中的时间戳没有时区（本地时间，微秒精度）
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ISOTime ISO8601 时间戳
// 序列化为 RFC3339Nano，反序列化兼容不带时区的旧格式
type ISOTime struct {
	time.Time
}

// NewISOTime 包装时间
func NewISOTime(t time.Time) ISOTime {
	return ISOTime{Time: t}
}

// MarshalJSON 实现 json.Marshaler
func (t ISOTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON 实现 json.Unmarshaler
func (t *ISOTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseISOTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseISOTime 解析 ISO8601 时间戳
func ParseISOTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
