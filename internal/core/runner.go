package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/sitemap"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/warmer"
	"github.com/schollz/progressbar/v3"
)

// VisitorFactory 延迟创建访问器
// 浏览器只在用户确认开始后才启动;返回的cleanup负责关闭浏览器
type VisitorFactory func() (visitor warmer.Visitor, cleanup func(), err error)

// Runner 预热会话执行器
// 把加载器、序列器和终端交互串起来: 加载站点地图,展示URL列表,
// 确认后启动序列器,并通过stdin命令转发用户意图
type Runner struct {
	config  *Config
	loader  *sitemap.Loader
	factory VisitorFactory

	seq      *warmer.Sequencer
	session  *models.WarmSession
	reporter *utils.Reporter
	bar      *progressbar.ProgressBar

	in  io.Reader
	out io.Writer

	skipConfirm bool

	done     chan struct{}
	doneOnce sync.Once
}

// NewRunner 创建执行器
func NewRunner(config *Config, loader *sitemap.Loader, factory VisitorFactory, in io.Reader, out io.Writer, skipConfirm bool) *Runner {
	return &Runner{
		config:      config,
		loader:      loader,
		factory:     factory,
		reporter:    utils.NewReporter(config.Output.BaseDir),
		in:          in,
		out:         out,
		skipConfirm: skipConfirm,
		done:        make(chan struct{}),
	}
}

// Run 执行一次预热会话
// 加载失败返回错误并保持空列表;站点地图为空时直接结束,与加载失败
// 的界面状态一致但不显示错误
func (r *Runner) Run(sitemapRef string, source models.SitemapSource) error {
	session, err := models.NewWarmSession(sitemapRef, source, r.config.Warm)
	if err != nil {
		return err
	}
	r.session = session

	records, err := r.load(sitemapRef, source)
	if err != nil {
		utils.Errorf("❌ %v", err)
		session.ErrorMessage = err.Error()
		return err
	}

	session.Stats.TotalURLs = len(records)
	if len(records) == 0 {
		utils.Warn("站点地图中没有URL,无事可做")
		return nil
	}

	r.printRecords(records, -1)

	if !r.confirm(len(records)) {
		utils.Info("已取消,未打开任何标签页")
		session.Status = models.SessionStatusCancelled
		return nil
	}

	visitor, cleanup, err := r.factory()
	if err != nil {
		session.ErrorMessage = err.Error()
		return fmt.Errorf("创建访问器失败: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	r.bar = utils.NewProgressBar(len(records), "🔥 缓存预热")
	r.seq = warmer.NewSequencer(visitor, r.config.Warm.DelaySeconds, r.onChange)
	r.seq.Load(records)

	session.MarkStarted()
	r.seq.Start()

	r.commandLoop()

	return nil
}

// load 根据来源类型加载站点地图
func (r *Runner) load(sitemapRef string, source models.SitemapSource) ([]models.URLRecord, error) {
	switch source {
	case models.SourceRemote:
		return r.loader.LoadRemote(sitemapRef)
	case models.SourceFile:
		return r.loader.LoadFile(sitemapRef)
	default:
		return nil, fmt.Errorf("未知的站点地图来源: %s", source)
	}
}

// confirm 启动前的确认对话
func (r *Runner) confirm(total int) bool {
	if r.skipConfirm {
		return true
	}

	fmt.Fprintf(r.out, "\n即将以%d秒间隔逐个打开 %d 个URL进行缓存预热。\n确认开始? [y/N]: ",
		r.config.Warm.DelaySeconds, total)

	scanner := bufio.NewScanner(r.in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// commandLoop 读取stdin命令直到会话完成或用户退出
func (r *Runner) commandLoop() {
	fmt.Fprintln(r.out, "\n命令: pause | resume | reset | start | status | delay <秒> | quit")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-r.done:
			r.finish()
			return

		case line, ok := <-lines:
			if !ok {
				// 输入流结束,等待序列完成
				<-r.done
				r.finish()
				return
			}
			if r.handleCommand(line) {
				return
			}
		}
	}
}

// handleCommand 处理单条用户命令,返回true表示退出
func (r *Runner) handleCommand(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "pause", "p":
		if r.seq.Pause() {
			utils.Info("⏸️  已暂停")
		}

	case "resume", "r":
		if r.seq.Resume() {
			utils.Info("▶️  已恢复,倒计时重新开始")
		}

	case "reset", "x":
		r.seq.Reset()
		r.session.Stats.Resets++
		utils.Info("🔄 已重置,所有URL回到待访问状态")

	case "start":
		if !r.seq.Start() {
			utils.Warn("当前状态无法开始 (正在处理中或列表为空)")
		}

	case "status", "s":
		snap := r.seq.Snapshot()
		r.printRecords(snap.Records, snap.CurrentIndex)
		r.printStatus(snap)

	case "delay", "d":
		if len(fields) < 2 {
			utils.Warn("用法: delay <秒>")
			break
		}
		seconds, err := strconv.Atoi(fields[1])
		if err != nil {
			utils.Warnf("无效的秒数: %s", fields[1])
			break
		}
		if r.seq.SetDelay(seconds) {
			utils.Infof("访问延迟已更新为%d秒 (下次Start生效)", seconds)
		} else {
			utils.Warnf("延迟修改被拒绝 (处理中或低于%d秒下限)", models.MinDelaySeconds)
		}

	case "quit", "q", "exit":
		r.seq.Reset()
		utils.Info("已退出")
		return true

	default:
		utils.Warnf("未知命令: %s", fields[0])
	}

	return false
}

// onChange 序列器状态变化回调
func (r *Runner) onChange(snap warmer.Snapshot) {
	switch snap.State {
	case warmer.StateRunning:
		r.printStatus(snap)
	case warmer.StateComplete:
		r.doneOnce.Do(func() { close(r.done) })
	}
}

// printStatus 打印进度状态
// Running时把倒计时和ETA放进进度条描述,由进度条负责单行刷新
func (r *Runner) printStatus(snap warmer.Snapshot) {
	if snap.State != warmer.StateRunning || r.bar == nil {
		fmt.Fprintf(r.out, "状态: %s | 进度: %d/%d\n", snap.State, snap.VisitedCount, snap.Total)
		return
	}

	eta := snap.EstimatedRemaining
	if eta == "" {
		eta = "-"
	}
	r.bar.Describe(fmt.Sprintf("⏳ 下一个 %2ds | 剩余 %s", snap.SecondsUntilNext, eta))
	_ = r.bar.Set(snap.VisitedCount)
}

// printRecords 打印URL状态表
func (r *Runner) printRecords(records []models.URLRecord, currentIndex int) {
	fmt.Fprintln(r.out, "\n==================================================")
	fmt.Fprintf(r.out, "站点地图URL (%d个)\n", len(records))
	fmt.Fprintln(r.out, "==================================================")
	for i, record := range records {
		label := "待访问"
		switch record.Status(i, currentIndex) {
		case models.RecordStatusProcessing:
			label = "处理中"
		case models.RecordStatusVisited:
			label = "已访问"
		}
		fmt.Fprintf(r.out, "  [%s] %s\n", label, record.URL)
	}
	fmt.Fprintln(r.out, "==================================================")
}

// finish 会话完成处理: 更新统计并生成报告
func (r *Runner) finish() {
	snap := r.seq.Snapshot()
	r.session.Stats.VisitedURLs = snap.VisitedCount
	r.session.MarkCompleted()

	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.out)
	utils.Infof("🎉 全部URL处理完成! 共访问 %d 个", snap.VisitedCount)

	report := &models.WarmReport{
		SessionID:  r.session.ID,
		SitemapRef: r.session.SitemapRef,
		Source:     r.session.Source,
		Domain:     r.session.Domain,
		EndTime:    time.Now(),
		Duration:   r.session.Stats.Duration,
		Stats:      r.session.Stats,
		Records:    snap.Records,
		Config:     r.session.Config,
	}
	if r.session.StartedAt != nil {
		report.StartTime = *r.session.StartedAt
	}

	if _, err := r.reporter.SaveReport(report); err != nil {
		utils.Errorf("保存报告失败: %v", err)
	}
}
