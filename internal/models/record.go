package models

// RecordStatus URL记录的展示状态
type RecordStatus string

const (
	RecordStatusPending    RecordStatus = "pending"    // 等待访问
	RecordStatusProcessing RecordStatus = "processing" // 正在访问
	RecordStatusVisited    RecordStatus = "visited"    // 已访问
)

// URLRecord 站点地图中的单个URL记录
// 由解析器批量创建,Visited仅在序列器访问该记录时翻转一次
type URLRecord struct {
	URL     string `json:"url"`
	Visited bool   `json:"visited"`
}

// NewURLRecords 从URL字符串列表批量创建记录
func NewURLRecords(urls []string) []URLRecord {
	records := make([]URLRecord, 0, len(urls))
	for _, u := range urls {
		records = append(records, URLRecord{URL: u})
	}
	return records
}

// Status 根据当前索引推导记录的展示状态
// index为序列器的当前索引,i为该记录在列表中的位置
func (r *URLRecord) Status(i int, currentIndex int) RecordStatus {
	switch {
	case r.Visited && i == currentIndex:
		return RecordStatusProcessing
	case r.Visited:
		return RecordStatusVisited
	default:
		return RecordStatusPending
	}
}
