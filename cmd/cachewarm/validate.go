package main

import (
	"fmt"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(sitemapURL string, sitemapFile string, delaySeconds int, requestTimeout int) error {
	// 来源二选一
	if sitemapURL != "" && sitemapFile != "" {
		return fmt.Errorf("--url 和 --file 只能指定一个")
	}

	// 验证URL
	if sitemapURL != "" {
		if err := models.ValidateURL(sitemapURL); err != nil {
			return fmt.Errorf("无效的站点地图URL: %w", err)
		}
	}

	// 验证延迟: 低于下限直接拒绝,而不是静默提升
	if delaySeconds < models.MinDelaySeconds {
		return fmt.Errorf("访问延迟必须不小于%d秒,当前值: %d", models.MinDelaySeconds, delaySeconds)
	}
	if delaySeconds > 86400 {
		return fmt.Errorf("访问延迟必须不超过86400秒,当前值: %d", delaySeconds)
	}

	// 验证超时
	if requestTimeout < 1 || requestTimeout > 300 {
		return fmt.Errorf("请求超时必须在1-300秒之间,当前值: %d", requestTimeout)
	}

	return nil
}
