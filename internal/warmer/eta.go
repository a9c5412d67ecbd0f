package warmer

import (
	"fmt"
	"strings"
)

// EstimateRemaining 计算剩余预计秒数
// 等于剩余待访问URL数乘以访问延迟
func EstimateRemaining(total int, currentIndex int, delaySeconds int) int {
	remaining := (total - (currentIndex + 1)) * delaySeconds
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatDuration 将秒数格式化为时分秒文本
// 省略为零的前导部分,用空格连接,例如 90 -> "1m 30s",0 -> ""
func FormatDuration(totalSeconds int) string {
	if totalSeconds <= 0 {
		return ""
	}

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
