package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/core"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/sitemap"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/warmer"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers []string // 自定义HTTP请求头

	// 预热参数
	sitemapURL     string
	sitemapFile    string
	delaySeconds   int
	requestTimeout int
	headless       bool
	skipConfirm    bool
	dryRun         bool
	outputDir      string
)

var rootCmd = &cobra.Command{
	Use:   "cachewarm",
	Short: "站点地图缓存预热工具",
	Long: `cachewarm - 站点地图缓存预热工具 (Go版本)

读取站点地图中的每个URL,按照可配置的间隔逐个在新的浏览器标签页中
打开,让目标站点提前生成页面缓存。支持:
  • 远程URL或本地文件两种站点地图来源
  • 暂停/恢复/重置的交互控制
  • 实时倒计时和剩余时间估算
  • 自定义HTTP请求头
  • 按系统内存自动回收旧标签页

使用示例:
  # 从远程站点地图开始预热
  cachewarm -u https://example.com/sitemap.xml

  # 从本地文件开始,间隔30秒
  cachewarm -f ./sitemap.xml -d 30

  # 带认证头部的预热
  cachewarm -u https://example.com/sitemap.xml -H "Authorization: Bearer token"

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		// 如果没有提供任何来源,显示帮助信息
		if sitemapURL == "" && sitemapFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(sitemapURL, sitemapFile, delaySeconds, requestTimeout); err != nil {
			return err
		}

		// 加载配置并合并命令行参数
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig.MergeCLIFlags(delaySeconds, headless, requestTimeout)
		if outputDir != "" {
			appConfig.Output.BaseDir = outputDir
		}

		// 解析自定义HTTP头部
		customHeaders, err := utils.ParseHeaderFlags(headers)
		if err != nil {
			return fmt.Errorf("解析HTTP头部失败: %w", err)
		}

		// 创建站点地图加载器
		loader := sitemap.NewLoader(
			time.Duration(appConfig.Warm.RequestTimeout)*time.Second,
			customHeaders,
		)

		// 访问器工厂: 浏览器在用户确认后才启动
		factory := newVisitorFactory(appConfig, customHeaders, dryRun)

		runner := core.NewRunner(appConfig, loader, factory, os.Stdin, os.Stdout, skipConfirm)

		ref := sitemapURL
		source := models.SourceRemote
		if sitemapFile != "" {
			ref = sitemapFile
			source = models.SourceFile
		}

		if err := runner.Run(ref, source); err != nil {
			return fmt.Errorf("预热会话失败: %w", err)
		}

		utils.Info("✨ 预热任务结束!")
		return nil
	},
}

// newVisitorFactory 构建访问器工厂
func newVisitorFactory(appConfig *core.Config, customHeaders map[string]string, dryRun bool) core.VisitorFactory {
	return func() (warmer.Visitor, func(), error) {
		if dryRun {
			utils.Info("🧪 空跑模式: 不启动浏览器,只记录访问节奏")
			return warmer.DryRunVisitor{}, nil, nil
		}

		monitor := warmer.NewTabMonitor(warmer.TabMonitorConfig{
			ReserveMemory:  int64(appConfig.Warm.ReserveMB) * 1024 * 1024,
			TabMemoryUsage: int64(appConfig.Warm.TabMemoryMB) * 1024 * 1024,
			MaxTabsLimit:   appConfig.Warm.MaxTabs,
		})

		visitor, err := warmer.NewBrowserVisitor(appConfig.Warm.Headless, customHeaders, monitor)
		if err != nil {
			return nil, nil, err
		}
		return visitor, visitor.Close, nil
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cachewarm %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 站点地图缓存预热工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")

	// 预热参数
	rootCmd.Flags().StringVarP(&sitemapURL, "url", "u", "", "站点地图URL (与 --file 二选一)")
	rootCmd.Flags().StringVarP(&sitemapFile, "file", "f", "", "本地站点地图XML文件路径")
	rootCmd.Flags().IntVarP(&delaySeconds, "delay", "d", models.MinDelaySeconds, fmt.Sprintf("两次访问之间的延迟(秒),最小%d", models.MinDelaySeconds))
	rootCmd.Flags().IntVar(&requestTimeout, "timeout", 30, "站点地图请求超时(秒)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "跳过启动确认对话")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "空跑模式,不实际打开浏览器")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "报告输出目录 (默认: output)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
