package warmer

import (
	"fmt"
	"sync"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserVisitor 浏览器访问器
// 每次Visit在浏览器中打开一个新标签页加载目标URL,让目标站点生成缓存
// 已预热的标签页保持打开,超过资源监控器给出的上限时关闭最旧的
type BrowserVisitor struct {
	browser *rod.Browser
	headers []string // SetExtraHeaders要求的name/value交替列表
	monitor *TabMonitor

	mu   sync.Mutex
	tabs []*rod.Page // 打开顺序
}

// NewBrowserVisitor 启动浏览器并创建访问器
// headers会附加到标签页发出的每个请求上
func NewBrowserVisitor(headless bool, headers map[string]string, monitor *TabMonitor) (*BrowserVisitor, error) {
	l := launcher.New().Headless(headless)

	// 跳过证书验证,允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)

	pairs := make([]string, 0, len(headers)*2)
	for name, value := range headers {
		pairs = append(pairs, name, value)
	}

	if monitor == nil {
		monitor = NewTabMonitor(DefaultTabMonitorConfig())
	}

	return &BrowserVisitor{
		browser: browser,
		headers: pairs,
		monitor: monitor,
	}, nil
}

// Visit 在新标签页中打开URL
// fire-and-forget: 不阻塞调用方,不向调用方暴露失败
func (v *BrowserVisitor) Visit(url string) {
	go v.open(url)
}

// open 创建标签页并导航,失败只记录日志
func (v *BrowserVisitor) open(url string) {
	page, err := v.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		utils.Warnf("打开标签页失败: %s: %v", url, err)
		return
	}

	if len(v.headers) > 0 {
		if _, err := page.SetExtraHeaders(v.headers); err != nil {
			utils.Warnf("设置HTTP头部失败: %v", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		utils.Warnf("导航失败: %s: %v", url, err)
		_ = page.Close()
		return
	}

	utils.Infof("🔥 已打开: %s", url)
	v.retain(page)
}

// retain 记录标签页,按监控器上限关闭最旧的
func (v *BrowserVisitor) retain(page *rod.Page) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.tabs = append(v.tabs, page)
	limit := v.monitor.MaxRetainedTabs()
	for len(v.tabs) > limit {
		oldest := v.tabs[0]
		v.tabs = v.tabs[1:]
		if err := oldest.Close(); err != nil {
			utils.Debugf("关闭旧标签页失败: %v", err)
		}
	}
}

// OpenTabs 当前保留的标签页数
func (v *BrowserVisitor) OpenTabs() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.tabs)
}

// Close 关闭浏览器
func (v *BrowserVisitor) Close() {
	if v.browser != nil {
		v.browser.MustClose()
		utils.Debugf("浏览器已关闭")
	}
}

// DryRunVisitor 空跑访问器
// 不打开浏览器,只记录将要访问的URL,用于验证站点地图和节奏
type DryRunVisitor struct{}

// Visit 记录URL
func (DryRunVisitor) Visit(url string) {
	utils.Infof("🧪 [dry-run] 将访问: %s", url)
}
