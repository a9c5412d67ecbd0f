package warmer

import (
	"sync"
	"time"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
	"github.com/shirou/gopsutil/v3/mem"
)

// TabMonitorConfig 标签页监控配置
type TabMonitorConfig struct {
	ReserveMemory  int64 // 系统安全保留内存(字节)
	TabMemoryUsage int64 // 单个标签页平均内存消耗(字节)
	MaxTabsLimit   int   // 绝对最大保留标签页数
}

// DefaultTabMonitorConfig 默认标签页监控配置
func DefaultTabMonitorConfig() TabMonitorConfig {
	return TabMonitorConfig{
		ReserveMemory:  512 * 1024 * 1024, // 512MB
		TabMemoryUsage: 100 * 1024 * 1024, // 100MB per tab
		MaxTabsLimit:   16,
	}
}

// TabMonitor 标签页资源监控器
// 职责: 根据系统可用内存计算可以保留多少个已预热的标签页
// 超出上限的最旧标签页由访问器关闭
type TabMonitor struct {
	config TabMonitorConfig

	// 缓存的计算结果,避免每次访问都采样系统内存
	cachedMaxTabs int
	lastCacheTime time.Time
	mu            sync.Mutex
}

// 缓存有效期
const tabCacheTTL = 5 * time.Second

// NewTabMonitor 创建标签页监控器
func NewTabMonitor(config TabMonitorConfig) *TabMonitor {
	if config.TabMemoryUsage <= 0 {
		config.TabMemoryUsage = DefaultTabMonitorConfig().TabMemoryUsage
	}
	if config.MaxTabsLimit <= 0 {
		config.MaxTabsLimit = DefaultTabMonitorConfig().MaxTabsLimit
	}
	return &TabMonitor{config: config}
}

// MaxRetainedTabs 计算当前可保留的标签页上限
// 可用内存不足时逐渐降级,但始终至少允许1个标签页
func (m *TabMonitor) MaxRetainedTabs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lastCacheTime.IsZero() && time.Since(m.lastCacheTime) < tabCacheTTL {
		return m.cachedMaxTabs
	}

	maxTabs := m.config.MaxTabsLimit

	vm, err := mem.VirtualMemory()
	if err != nil {
		utils.Debugf("读取系统内存失败,使用上限值: %v", err)
	} else {
		available := int64(vm.Available) - m.config.ReserveMemory
		byMemory := int(available / m.config.TabMemoryUsage)
		if byMemory < maxTabs {
			maxTabs = byMemory
		}
	}

	if maxTabs < 1 {
		maxTabs = 1
	}

	m.cachedMaxTabs = maxTabs
	m.lastCacheTime = time.Now()
	return maxTabs
}
