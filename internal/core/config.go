package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Warm    models.WarmConfig `mapstructure:"warm"`
	Logging LoggingConfig     `mapstructure:"logging"`
	Output  OutputConfig      `mapstructure:"output"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cachewarm"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 预热配置默认值
	v.SetDefault("warm.delay_seconds", models.MinDelaySeconds)
	v.SetDefault("warm.headless", true)
	v.SetDefault("warm.request_timeout", 30)
	v.SetDefault("warm.max_tabs", 16)
	v.SetDefault("warm.tab_memory_mb", 100)
	v.SetDefault("warm.reserve_mb", 512)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(delaySeconds int, headless bool, requestTimeout int) {
	if delaySeconds >= models.MinDelaySeconds {
		c.Warm.DelaySeconds = delaySeconds
	}
	c.Warm.Headless = headless
	if requestTimeout > 0 {
		c.Warm.RequestTimeout = requestTimeout
	}
}
