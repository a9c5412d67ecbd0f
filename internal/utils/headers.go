package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxHeaderValueLength HTTP头部值最大长度 (8KB)
	MaxHeaderValueLength = 8192
)

// ForbiddenHeaders 禁止用户配置的头部 (由HTTP客户端管理)
var ForbiddenHeaders = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
}

var (
	// HTTP头部名称验证 (RFC 7230): 允许字母、数字和连字符
	headerNameRegex = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

	// HTTP头部值验证: 可打印ASCII + 空格/制表符
	headerValueRegex = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// ParseHeaderFlags 解析命令行的'Name: Value'头部参数
// 每一项在第一个冒号处分割,名称和值都会被校验
func ParseHeaderFlags(flags []string) (map[string]string, error) {
	headers := make(map[string]string, len(flags))

	for _, flag := range flags {
		name, value, found := strings.Cut(flag, ":")
		if !found {
			return nil, fmt.Errorf("头部格式无效 (应为 'Name: Value'): %s", flag)
		}

		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if err := ValidateHeaderName(name); err != nil {
			return nil, err
		}
		if err := ValidateHeaderValue(name, value); err != nil {
			return nil, err
		}

		headers[name] = value
	}

	return headers, nil
}

// ValidateHeaderName 验证头部名称
func ValidateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("头部名称不能为空")
	}

	if !headerNameRegex.MatchString(name) {
		return fmt.Errorf("头部名称包含非法字符 (仅允许字母、数字和连字符): %s", name)
	}

	for _, forbidden := range ForbiddenHeaders {
		if strings.EqualFold(name, forbidden) {
			return fmt.Errorf("头部%s由HTTP客户端管理,不允许配置", name)
		}
	}

	return nil
}

// ValidateHeaderValue 验证头部值
func ValidateHeaderValue(name string, value string) error {
	if len(value) > MaxHeaderValueLength {
		return fmt.Errorf("头部%s的值超过最大长度%d字节", name, MaxHeaderValueLength)
	}

	if !headerValueRegex.MatchString(value) {
		return fmt.Errorf("头部%s的值包含非法字符 (仅允许可打印ASCII)", name)
	}

	return nil
}
