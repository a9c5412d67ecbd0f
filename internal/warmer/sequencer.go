package warmer

import (
	"sync"
	"time"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/utils"
)

// State 序列器状态
type State string

const (
	StateIdle     State = "idle"     // 空闲,currentIndex=-1
	StateRunning  State = "running"  // 按节奏逐个访问中
	StatePaused   State = "paused"   // 已暂停,不再自动推进
	StateComplete State = "complete" // 最后一个URL已访问完成
)

// Visitor 访问能力
// Visit打开一个URL的浏览上下文,调用方不观察成功与否(fire-and-forget)
// 实现必须不阻塞调用方
type Visitor interface {
	Visit(url string)
}

// Snapshot 序列器状态快照
// 所有展示层输出(倒计时、ETA、进度)都从快照推导
type Snapshot struct {
	State              State
	Records            []models.URLRecord
	CurrentIndex       int
	DelaySeconds       int
	SecondsUntilNext   int    // Running时每秒从延迟递减到0,其他状态为0
	EstimatedRemaining string // Running时的剩余时间文本,其他状态为空
	VisitedCount       int
	Total              int
}

// Sequencer 访问序列器
// 持有URL记录列表,按配置的延迟逐个推进并触发访问副作用
// 所有状态转移经由同一把互斥锁串行化;两个定时任务(下一步定时器和
// 每秒倒计时)由世代计数器保护,状态变化后残留的到期回调是无操作
type Sequencer struct {
	mu sync.Mutex

	records      []models.URLRecord
	currentIndex int
	processing   bool
	paused       bool
	delaySeconds int
	countdown    int

	visitor  Visitor
	onChange func(Snapshot)

	// 世代计数器: 每次取消/重新武装定时器时递增
	// 定时器回调持有武装时的世代,不一致则直接返回
	gen       uint64
	stepTimer *time.Timer
	tickTimer *time.Timer
}

// NewSequencer 创建序列器
// delaySeconds低于下限时取下限;onChange在每次状态变化后被调用(可为nil)
func NewSequencer(visitor Visitor, delaySeconds int, onChange func(Snapshot)) *Sequencer {
	if delaySeconds < models.MinDelaySeconds {
		delaySeconds = models.MinDelaySeconds
	}
	return &Sequencer{
		records:      []models.URLRecord{},
		currentIndex: -1,
		delaySeconds: delaySeconds,
		visitor:      visitor,
		onChange:     onChange,
	}
}

// Load 用新的记录列表完整替换当前状态
// 不合并不去重,序列回到索引-1,所有定时器取消
func (s *Sequencer) Load(records []models.URLRecord) {
	s.mu.Lock()
	s.cancelTimersLocked()
	s.records = make([]models.URLRecord, len(records))
	copy(s.records, records)
	s.currentIndex = -1
	s.processing = false
	s.paused = false
	s.countdown = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Start 开始访问序列
// 列表为空或已在处理中时是无操作,返回false
// 成功进入Running时立即执行第一次访问(索引0)
func (s *Sequencer) Start() bool {
	s.mu.Lock()
	if s.processing || len(s.records) == 0 {
		s.mu.Unlock()
		return false
	}
	// 从Complete重新Start前需要Reset,这里同样视为无操作
	if s.currentIndex == len(s.records)-1 && s.currentIndex >= 0 {
		s.mu.Unlock()
		return false
	}

	s.processing = true
	s.paused = false

	visitURL, completed := s.advanceLocked()
	if completed {
		s.completeLocked()
	} else {
		s.armTimersLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.dispatchVisit(visitURL)
	s.notify(snap)
	return true
}

// Pause 暂停自动推进
// 仅在Running状态有效,暂停期间倒计时清零
func (s *Sequencer) Pause() bool {
	s.mu.Lock()
	if !s.processing || s.paused {
		s.mu.Unlock()
		return false
	}
	s.paused = true
	s.cancelTimersLocked()
	s.countdown = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Resume 恢复自动推进
// 倒计时从完整配置延迟重新开始,而不是暂停时的剩余值
func (s *Sequencer) Resume() bool {
	s.mu.Lock()
	if !s.processing || !s.paused {
		s.mu.Unlock()
		return false
	}
	s.paused = false
	s.armTimersLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Reset 从任意状态回到Idle
// 清除所有visited标记,索引回到-1,取消全部定时器,倒计时清空
// 幂等: 连续调用两次与一次的结果相同
func (s *Sequencer) Reset() {
	s.mu.Lock()
	s.cancelTimersLocked()
	for i := range s.records {
		s.records[i].Visited = false
	}
	s.currentIndex = -1
	s.processing = false
	s.paused = false
	s.countdown = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// SetDelay 修改访问延迟(秒)
// 仅在Idle状态接受,低于下限或处理中的修改被拒绝
func (s *Sequencer) SetDelay(delaySeconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		utils.Debugf("序列器处理中,拒绝修改延迟: %d", delaySeconds)
		return false
	}
	if delaySeconds < models.MinDelaySeconds {
		utils.Warnf("访问延迟低于下限%d秒,已拒绝: %d", models.MinDelaySeconds, delaySeconds)
		return false
	}

	s.delaySeconds = delaySeconds
	return true
}

// Snapshot 返回当前状态快照
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// fireStep 下一步定时器到期回调
// 世代不一致(已被取消/重新武装)时是无操作
func (s *Sequencer) fireStep(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.processing || s.paused {
		s.mu.Unlock()
		return
	}

	visitURL, completed := s.advanceLocked()
	if completed {
		s.completeLocked()
	} else {
		s.armTimersLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.dispatchVisit(visitURL)
	s.notify(snap)
}

// fireTick 每秒倒计时回调,递减可见倒计时并自我重新武装
func (s *Sequencer) fireTick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.processing || s.paused {
		s.mu.Unlock()
		return
	}

	if s.countdown > 0 {
		s.countdown--
	}
	if s.countdown > 0 {
		s.tickTimer = time.AfterFunc(time.Second, func() { s.fireTick(gen) })
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// advanceLocked 将索引推进1并标记visited,返回要访问的URL
// completed为true表示已到达最后一个记录
func (s *Sequencer) advanceLocked() (visitURL string, completed bool) {
	s.currentIndex++
	s.records[s.currentIndex].Visited = true
	visitURL = s.records[s.currentIndex].URL
	return visitURL, s.currentIndex == len(s.records)-1
}

// completeLocked 进入Complete状态,停止全部定时器
func (s *Sequencer) completeLocked() {
	s.processing = false
	s.paused = false
	s.cancelTimersLocked()
	s.countdown = 0
}

// armTimersLocked 取消并重新武装两个定时任务
// 每次武装递增世代,使任何残留回调失效
func (s *Sequencer) armTimersLocked() {
	s.cancelTimersLocked()
	gen := s.gen
	s.countdown = s.delaySeconds
	s.stepTimer = time.AfterFunc(time.Duration(s.delaySeconds)*time.Second, func() { s.fireStep(gen) })
	s.tickTimer = time.AfterFunc(time.Second, func() { s.fireTick(gen) })
}

// cancelTimersLocked 停止两个定时任务并使其世代失效
func (s *Sequencer) cancelTimersLocked() {
	s.gen++
	if s.stepTimer != nil {
		s.stepTimer.Stop()
		s.stepTimer = nil
	}
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
}

// snapshotLocked 在持锁状态下构建快照
func (s *Sequencer) snapshotLocked() Snapshot {
	records := make([]models.URLRecord, len(s.records))
	copy(records, s.records)

	visited := 0
	for _, r := range records {
		if r.Visited {
			visited++
		}
	}

	snap := Snapshot{
		State:        s.stateLocked(),
		Records:      records,
		CurrentIndex: s.currentIndex,
		DelaySeconds: s.delaySeconds,
		VisitedCount: visited,
		Total:        len(records),
	}

	if snap.State == StateRunning {
		snap.SecondsUntilNext = s.countdown
		snap.EstimatedRemaining = FormatDuration(EstimateRemaining(len(records), s.currentIndex, s.delaySeconds))
	}

	return snap
}

// stateLocked 从内部字段推导状态
func (s *Sequencer) stateLocked() State {
	switch {
	case s.processing && s.paused:
		return StatePaused
	case s.processing:
		return StateRunning
	case len(s.records) > 0 && s.currentIndex == len(s.records)-1 && s.records[s.currentIndex].Visited:
		return StateComplete
	default:
		return StateIdle
	}
}

// dispatchVisit 触发访问副作用
// 不等待不重试,访问失败(如弹窗被阻止)对序列器不可见
func (s *Sequencer) dispatchVisit(url string) {
	if url == "" || s.visitor == nil {
		return
	}
	s.visitor.Visit(url)
}

// notify 向展示层推送快照
func (s *Sequencer) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
