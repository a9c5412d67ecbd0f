package warmer

import (
	"sync"
	"testing"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/models"
)

// recordingVisitor 记录访问顺序的测试访问器
type recordingVisitor struct {
	mu   sync.Mutex
	urls []string
}

func (v *recordingVisitor) Visit(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.urls = append(v.urls, url)
}

func (v *recordingVisitor) visited() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.urls))
	copy(out, v.urls)
	return out
}

func threeRecords() []models.URLRecord {
	return models.NewURLRecords([]string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	})
}

// currentGen 读取当前世代,用于模拟定时器到期
func currentGen(s *Sequencer) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func TestSequencer_StartEmptyList(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)

	if s.Start() {
		t.Error("空列表的Start应是无操作")
	}
	if got := s.Snapshot().State; got != StateIdle {
		t.Errorf("空列表Start后状态 = %v, want %v", got, StateIdle)
	}
	if len(visitor.visited()) != 0 {
		t.Error("空列表不应触发任何访问")
	}
}

func TestSequencer_StartVisitsFirstImmediately(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())

	if !s.Start() {
		t.Fatal("Start应成功")
	}

	snap := s.Snapshot()
	if snap.State != StateRunning {
		t.Errorf("状态 = %v, want %v", snap.State, StateRunning)
	}
	if snap.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0 (进入Running立即访问第一个)", snap.CurrentIndex)
	}
	if !snap.Records[0].Visited {
		t.Error("第一个记录应标记为visited")
	}
	if got := visitor.visited(); len(got) != 1 || got[0] != "https://example.com/a" {
		t.Errorf("访问记录 = %v, want [https://example.com/a]", got)
	}
	if snap.SecondsUntilNext != 20 {
		t.Errorf("SecondsUntilNext = %d, want 20", snap.SecondsUntilNext)
	}
}

func TestSequencer_ThreeStepScenario(t *testing.T) {
	// 3个loc的站点地图: 确认开始立即访问A,每次步进依次访问B、C后到达Complete
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()

	s.fireStep(currentGen(s))
	snap := s.Snapshot()
	if snap.CurrentIndex != 1 || !snap.Records[1].Visited {
		t.Fatalf("第一次步进后 CurrentIndex = %d, Visited = %v", snap.CurrentIndex, snap.Records[1].Visited)
	}
	if snap.State != StateRunning {
		t.Errorf("状态 = %v, want %v", snap.State, StateRunning)
	}

	s.fireStep(currentGen(s))
	snap = s.Snapshot()
	if snap.CurrentIndex != 2 {
		t.Fatalf("第二次步进后 CurrentIndex = %d, want 2", snap.CurrentIndex)
	}
	if snap.State != StateComplete {
		t.Errorf("最后一个记录访问后状态 = %v, want %v", snap.State, StateComplete)
	}

	want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	got := visitor.visited()
	if len(got) != len(want) {
		t.Fatalf("访问数 = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("访问顺序[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Complete后的残留步进必须是无操作
	s.fireStep(currentGen(s))
	if len(visitor.visited()) != 3 {
		t.Error("Complete后不应再有访问")
	}
}

func TestSequencer_VisitedPrefixInvariant(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()
	s.fireStep(currentGen(s))

	snap := s.Snapshot()
	// visited标记必须构成列表前缀
	seenUnvisited := false
	for i, r := range snap.Records {
		if !r.Visited {
			seenUnvisited = true
		} else if seenUnvisited {
			t.Errorf("records[%d]已访问但更早的记录未访问,破坏前缀不变量", i)
		}
	}
}

func TestSequencer_PauseStopsAdvancement(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()
	genBeforePause := currentGen(s)

	if !s.Pause() {
		t.Fatal("Pause应成功")
	}
	if got := s.Snapshot().State; got != StatePaused {
		t.Errorf("状态 = %v, want %v", got, StatePaused)
	}
	if got := s.Snapshot().SecondsUntilNext; got != 0 {
		t.Errorf("暂停时倒计时 = %d, want 0", got)
	}

	// 暂停前武装的定时器到期必须是无操作
	s.fireStep(genBeforePause)
	if got := s.Snapshot().CurrentIndex; got != 0 {
		t.Errorf("暂停后索引被推进到 %d, 稳定定时器应失效", got)
	}
}

func TestSequencer_ResumeRestartsFullCountdown(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()

	// 倒计时走掉几秒后暂停
	s.fireTick(currentGen(s))
	s.fireTick(currentGen(s))
	s.Pause()

	if !s.Resume() {
		t.Fatal("Resume应成功")
	}
	snap := s.Snapshot()
	if snap.State != StateRunning {
		t.Errorf("状态 = %v, want %v", snap.State, StateRunning)
	}
	if snap.SecondsUntilNext != 20 {
		t.Errorf("恢复后倒计时 = %d, want 完整的20 (不保留暂停前的剩余值)", snap.SecondsUntilNext)
	}
}

func TestSequencer_ResetIdempotent(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()
	s.fireStep(currentGen(s))

	s.Reset()
	first := s.Snapshot()
	s.Reset()
	second := s.Snapshot()

	for _, snap := range []Snapshot{first, second} {
		if snap.State != StateIdle {
			t.Errorf("Reset后状态 = %v, want %v", snap.State, StateIdle)
		}
		if snap.CurrentIndex != -1 {
			t.Errorf("Reset后 CurrentIndex = %d, want -1", snap.CurrentIndex)
		}
		if snap.VisitedCount != 0 {
			t.Errorf("Reset后 VisitedCount = %d, want 0", snap.VisitedCount)
		}
		if snap.SecondsUntilNext != 0 || snap.EstimatedRemaining != "" {
			t.Error("Reset后倒计时和ETA应清空")
		}
	}
}

func TestSequencer_StaleTimerAfterReset(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()
	staleGen := currentGen(s)

	s.Reset()

	// 重置前武装的定时器此刻到期: 必须是无操作
	s.fireStep(staleGen)
	s.fireTick(staleGen)

	snap := s.Snapshot()
	if snap.State != StateIdle || snap.CurrentIndex != -1 {
		t.Errorf("残留定时器触发后状态 = %v/%d, 应保持Idle/-1", snap.State, snap.CurrentIndex)
	}
	if len(visitor.visited()) != 1 {
		t.Errorf("残留定时器不应触发新的访问, 访问数 = %d", len(visitor.visited()))
	}
}

func TestSequencer_SetDelay(t *testing.T) {
	s := NewSequencer(&recordingVisitor{}, 20, nil)
	s.Load(threeRecords())

	tests := []struct {
		name  string
		delay int
		want  bool
	}{
		{"有效的延迟", 30, true},
		{"等于下限", 20, true},
		{"低于下限被拒绝", 19, false},
		{"负数被拒绝", -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SetDelay(tt.delay); got != tt.want {
				t.Errorf("SetDelay(%d) = %v, want %v", tt.delay, got, tt.want)
			}
		})
	}

	// 无论尝试过什么输入,延迟不得低于下限
	if got := s.Snapshot().DelaySeconds; got < models.MinDelaySeconds {
		t.Errorf("DelaySeconds = %d, 不应低于%d", got, models.MinDelaySeconds)
	}
}

func TestSequencer_SetDelayRejectedWhileProcessing(t *testing.T) {
	s := NewSequencer(&recordingVisitor{}, 20, nil)
	s.Load(threeRecords())
	s.Start()

	if s.SetDelay(30) {
		t.Error("Running状态的延迟修改应被拒绝")
	}
	s.Pause()
	if s.SetDelay(30) {
		t.Error("Paused状态的延迟修改应被拒绝")
	}
	s.Reset()
	if !s.SetDelay(30) {
		t.Error("Idle状态的延迟修改应被接受")
	}
	if got := s.Snapshot().DelaySeconds; got != 30 {
		t.Errorf("DelaySeconds = %d, want 30", got)
	}
}

func TestSequencer_CountdownTick(t *testing.T) {
	s := NewSequencer(&recordingVisitor{}, 20, nil)
	s.Load(threeRecords())
	s.Start()

	s.fireTick(currentGen(s))
	if got := s.Snapshot().SecondsUntilNext; got != 19 {
		t.Errorf("一次tick后倒计时 = %d, want 19", got)
	}
	s.fireTick(currentGen(s))
	if got := s.Snapshot().SecondsUntilNext; got != 18 {
		t.Errorf("两次tick后倒计时 = %d, want 18", got)
	}
}

func TestSequencer_EstimatedRemaining(t *testing.T) {
	s := NewSequencer(&recordingVisitor{}, 20, nil)
	s.Load(threeRecords())
	s.Start()

	// 索引0已访问,剩余2个 * 20秒 = 40秒
	if got := s.Snapshot().EstimatedRemaining; got != "40s" {
		t.Errorf("EstimatedRemaining = %q, want %q", got, "40s")
	}

	s.Pause()
	if got := s.Snapshot().EstimatedRemaining; got != "" {
		t.Errorf("非Running状态 EstimatedRemaining = %q, want 空", got)
	}
}

func TestSequencer_LoadReplacesState(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()
	s.fireStep(currentGen(s))

	// 重新加载完整替换: 不合并不去重
	s.Load(models.NewURLRecords([]string{"https://example.com/x"}))

	snap := s.Snapshot()
	if snap.Total != 1 {
		t.Errorf("Total = %d, want 1", snap.Total)
	}
	if snap.CurrentIndex != -1 || snap.State != StateIdle {
		t.Errorf("重新加载后 = %v/%d, want Idle/-1", snap.State, snap.CurrentIndex)
	}
	if snap.VisitedCount != 0 {
		t.Errorf("VisitedCount = %d, want 0", snap.VisitedCount)
	}
}

func TestSequencer_StartWhileRunningIsNoop(t *testing.T) {
	visitor := &recordingVisitor{}
	s := NewSequencer(visitor, 20, nil)
	s.Load(threeRecords())
	s.Start()

	if s.Start() {
		t.Error("Running状态的Start应是无操作")
	}
	if len(visitor.visited()) != 1 {
		t.Errorf("重复Start不应触发新访问, 访问数 = %d", len(visitor.visited()))
	}
}

func TestSequencer_OnChangeNotified(t *testing.T) {
	var mu sync.Mutex
	var states []State
	onChange := func(snap Snapshot) {
		mu.Lock()
		states = append(states, snap.State)
		mu.Unlock()
	}

	s := NewSequencer(&recordingVisitor{}, 20, onChange)
	s.Load(threeRecords())
	s.Start()
	s.Pause()
	s.Resume()
	s.Reset()

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateIdle, StateRunning, StatePaused, StateRunning, StateIdle}
	if len(states) != len(want) {
		t.Fatalf("通知次数 = %d, want %d (%v)", len(states), len(want), states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}
