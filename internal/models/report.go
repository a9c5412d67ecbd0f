package models

import (
	"encoding/json"
	"time"
)

// WarmReport 预热报告
type WarmReport struct {
	// 会话信息
	SessionID  string        `json:"session_id"`
	SitemapRef string        `json:"sitemap_ref"`
	Source     SitemapSource `json:"source"`
	Domain     string        `json:"domain,omitempty"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats WarmStats `json:"stats"`

	// URL列表快照
	Records []URLRecord `json:"records"`

	// 配置快照
	Config WarmConfig `json:"config"`
}

// ToJSON 序列化为JSON
func (r *WarmReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *WarmReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
