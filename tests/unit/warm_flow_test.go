package unit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/sitemap"
	"github.com/basharatreyaz/Brizy-Cloud-Cache-Generator/internal/warmer"
)

// countingVisitor 只计数的访问器
type countingVisitor struct {
	mu    sync.Mutex
	count int
	first string
}

func (v *countingVisitor) Visit(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.count == 0 {
		v.first = url
	}
	v.count++
}

func TestWarmFlow_LoadAndStart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/page1</loc></url>
  <url><loc>https://example.com/page2</loc></url>
  <url><loc>https://example.com/page3</loc></url>
</urlset>`))
	}))
	defer server.Close()

	loader := sitemap.NewLoader(5*time.Second, nil)
	records, err := loader.LoadRemote(server.URL)
	if err != nil {
		t.Fatalf("LoadRemote() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("记录数 = %d, want 3", len(records))
	}

	visitor := &countingVisitor{}
	seq := warmer.NewSequencer(visitor, 20, nil)
	seq.Load(records)

	if !seq.Start() {
		t.Fatal("Start应成功")
	}

	snap := seq.Snapshot()
	if snap.State != warmer.StateRunning {
		t.Errorf("状态 = %v, want %v", snap.State, warmer.StateRunning)
	}
	if snap.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", snap.CurrentIndex)
	}

	visitor.mu.Lock()
	defer visitor.mu.Unlock()
	if visitor.count != 1 || visitor.first != "https://example.com/page1" {
		t.Errorf("访问 = %d次/%s, want 1次/page1", visitor.count, visitor.first)
	}
}

func TestWarmFlow_PauseResumeReset(t *testing.T) {
	records := sitemap.Parse([]byte(`<urlset>
  <url><loc>https://example.com/a</loc></url>
  <url><loc>https://example.com/b</loc></url>
</urlset>`))

	seq := warmer.NewSequencer(&countingVisitor{}, 20, nil)
	seq.Load(records)
	seq.Start()

	if !seq.Pause() {
		t.Fatal("Pause应成功")
	}
	if got := seq.Snapshot().State; got != warmer.StatePaused {
		t.Errorf("状态 = %v, want %v", got, warmer.StatePaused)
	}

	if !seq.Resume() {
		t.Fatal("Resume应成功")
	}
	snap := seq.Snapshot()
	if snap.State != warmer.StateRunning {
		t.Errorf("状态 = %v, want %v", snap.State, warmer.StateRunning)
	}
	// 恢复后倒计时从完整延迟重新开始
	if snap.SecondsUntilNext != 20 {
		t.Errorf("恢复后倒计时 = %d, want 20", snap.SecondsUntilNext)
	}

	// 连续两次Reset与一次结果相同
	seq.Reset()
	seq.Reset()
	snap = seq.Snapshot()
	if snap.State != warmer.StateIdle || snap.CurrentIndex != -1 || snap.VisitedCount != 0 {
		t.Errorf("Reset后 = %v/%d/%d个已访问, want Idle/-1/0", snap.State, snap.CurrentIndex, snap.VisitedCount)
	}
}

func TestWarmFlow_EmptySitemapNeverStarts(t *testing.T) {
	records := sitemap.Parse([]byte(`<urlset><url><lastmod>2024-01-01</lastmod></url></urlset>`))
	if len(records) != 0 {
		t.Fatalf("记录数 = %d, want 0", len(records))
	}

	visitor := &countingVisitor{}
	seq := warmer.NewSequencer(visitor, 20, nil)
	seq.Load(records)

	if seq.Start() {
		t.Error("空列表的Start应是无操作")
	}
	if got := seq.Snapshot().State; got != warmer.StateIdle {
		t.Errorf("状态 = %v, 应保持%v", got, warmer.StateIdle)
	}
}
