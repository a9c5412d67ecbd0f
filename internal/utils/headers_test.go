package utils

import (
	"strings"
	"testing"
)

func TestParseHeaderFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "单个头部",
			flags: []string{"User-Agent: WarmBot/1.0"},
			want:  map[string]string{"User-Agent": "WarmBot/1.0"},
		},
		{
			name:  "多个头部",
			flags: []string{"User-Agent: WarmBot/1.0", "Authorization: Bearer abc"},
			want:  map[string]string{"User-Agent": "WarmBot/1.0", "Authorization": "Bearer abc"},
		},
		{
			name:  "值中包含冒号",
			flags: []string{"Referer: https://example.com/page"},
			want:  map[string]string{"Referer": "https://example.com/page"},
		},
		{
			name:    "缺少冒号",
			flags:   []string{"User-Agent WarmBot"},
			wantErr: true,
		},
		{
			name:    "禁止的头部",
			flags:   []string{"Host: evil.example.com"},
			wantErr: true,
		},
		{
			name:    "非法的头部名称",
			flags:   []string{"User Agent: x"},
			wantErr: true,
		},
		{
			name:  "空列表",
			flags: nil,
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeaderFlags(tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHeaderFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("头部数 = %d, want %d", len(got), len(tt.want))
			}
			for name, value := range tt.want {
				if got[name] != value {
					t.Errorf("headers[%q] = %q, want %q", name, got[name], value)
				}
			}
		})
	}
}

func TestValidateHeaderName(t *testing.T) {
	tests := []struct {
		name       string
		headerName string
		wantErr    bool
	}{
		{"合法名称-字母", "User-Agent", false},
		{"合法名称-数字", "X-Request-ID-123", false},
		{"非法名称-空格", "User Agent", true},
		{"非法名称-下划线", "User_Agent", true},
		{"非法名称-空字符串", "", true},
		{"禁止头部-不区分大小写", "host", true},
		{"禁止头部-Content-Length", "Content-Length", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeaderName(tt.headerName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHeaderName(%q) error = %v, wantErr %v", tt.headerName, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHeaderValue(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"合法值-ASCII", "Mozilla/5.0", false},
		{"合法值-空字符串", "", false},
		{"非法值-超长", strings.Repeat("a", MaxHeaderValueLength+1), true},
		{"非法值-控制字符", "value\x00null", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeaderValue("X-Test", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHeaderValue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
