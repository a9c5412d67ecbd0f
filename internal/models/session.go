package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// SessionStatus 预热会话状态
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // 待开始
	SessionStatusRunning   SessionStatus = "running"   // 进行中
	SessionStatusPaused    SessionStatus = "paused"    // 已暂停
	SessionStatusCompleted SessionStatus = "completed" // 已完成
	SessionStatusCancelled SessionStatus = "cancelled" // 已取消
)

// SitemapSource 站点地图来源
type SitemapSource string

const (
	SourceRemote SitemapSource = "remote" // 远程URL获取
	SourceFile   SitemapSource = "file"   // 本地文件
)

// MinDelaySeconds 两次访问之间的最小延迟(秒)
// 低于该值的设置会被拒绝,保持目标站点的缓存生成有足够时间
const MinDelaySeconds = 20

// WarmConfig 预热配置
type WarmConfig struct {
	DelaySeconds   int  `json:"delay_seconds"`   // 访问间隔(秒),最小20
	Headless       bool `json:"headless"`        // 无头浏览器模式
	RequestTimeout int  `json:"request_timeout"` // 站点地图请求超时(秒)
	MaxTabs        int  `json:"max_tabs"`        // 保留标签页上限
	TabMemoryMB    int  `json:"tab_memory_mb"`   // 单个标签页预估内存(MB)
	ReserveMB      int  `json:"reserve_mb"`      // 系统安全保留内存(MB)
}

// Validate 验证配置
func (c *WarmConfig) Validate() error {
	if c.DelaySeconds < MinDelaySeconds {
		return fmt.Errorf("访问延迟必须不小于%d秒", MinDelaySeconds)
	}
	if c.RequestTimeout < 1 || c.RequestTimeout > 300 {
		return fmt.Errorf("请求超时必须在1-300秒之间")
	}
	if c.MaxTabs < 1 || c.MaxTabs > 64 {
		return fmt.Errorf("标签页上限必须在1-64之间")
	}
	return nil
}

// WarmStats 会话统计
type WarmStats struct {
	TotalURLs   int     `json:"total_urls"`   // 站点地图URL总数
	VisitedURLs int     `json:"visited_urls"` // 已访问URL数
	Resets      int     `json:"resets"`       // 重置次数
	Duration    float64 `json:"duration"`     // 总耗时(秒)
}

// WarmSession 预热会话
type WarmSession struct {
	// 基本信息
	ID          string        `json:"id"`                     // 会话唯一ID (UUID)
	SitemapRef  string        `json:"sitemap_ref"`            // 站点地图URL或文件路径
	Source      SitemapSource `json:"source"`                 // 来源类型
	Domain      string        `json:"domain"`                 // 解析的域名(远程来源)
	CreatedAt   time.Time     `json:"created_at"`             // 创建时间
	StartedAt   *time.Time    `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time    `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config WarmConfig `json:"config"`

	// 执行状态
	Status SessionStatus `json:"status"`

	// 统计信息
	Stats WarmStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewWarmSession 创建新的预热会话
// 远程来源会校验URL格式并解析域名,文件来源只记录路径
func NewWarmSession(sitemapRef string, source SitemapSource, config WarmConfig) (*WarmSession, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	domain := ""
	if source == SourceRemote {
		if err := ValidateURL(sitemapRef); err != nil {
			return nil, err
		}
		parsed, _ := url.Parse(sitemapRef)
		domain = parsed.Host
	}

	return &WarmSession{
		ID:         generateID(),
		SitemapRef: sitemapRef,
		Source:     source,
		Domain:     domain,
		CreatedAt:  time.Now(),
		Config:     config,
		Status:     SessionStatusPending,
		Stats:      WarmStats{},
	}, nil
}

// MarkStarted 标记会话开始
func (s *WarmSession) MarkStarted() {
	now := time.Now()
	s.StartedAt = &now
	s.Status = SessionStatusRunning
}

// MarkCompleted 标记会话完成
func (s *WarmSession) MarkCompleted() {
	now := time.Now()
	s.CompletedAt = &now
	s.Status = SessionStatusCompleted
	if s.StartedAt != nil {
		s.Stats.Duration = now.Sub(*s.StartedAt).Seconds()
	}
}

// ToJSON 序列化为JSON
func (s *WarmSession) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON 从JSON反序列化
func (s *WarmSession) FromJSON(data []byte) error {
	return json.Unmarshal(data, s)
}
