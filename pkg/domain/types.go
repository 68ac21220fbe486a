package domain

// EventKind 嵌入式页面事件类型
type EventKind int

const (
	// EventNavigation 页面发起的主框架导航（已暂停，等待放行或中止）
	EventNavigation EventKind = iota + 1
	// EventLoadFinished 主框架加载结束（成功与失败不区分）
	EventLoadFinished
	// EventBinding 页面脚本桥接调用
	EventBinding
	// EventFileChooser 页面请求文件选择
	EventFileChooser
	// EventClosed 页面已关闭或连接断开
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventNavigation:
		return "navigation"
	case EventLoadFinished:
		return "load_finished"
	case EventBinding:
		return "binding"
	case EventFileChooser:
		return "file_chooser"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// NavigationRequest 被暂停的导航请求
type NavigationRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// FileChooser 页面文件选择请求
type FileChooser struct {
	Accept   []string `json:"accept"`
	Multiple bool     `json:"multiple"`
	// Resolve 回填所选文件，空切片表示未选择文件
	Resolve func(paths []string) error `json:"-"`
}

// SurfaceEvent 嵌入式页面推送到主序列的事件
type SurfaceEvent struct {
	Kind       EventKind
	Navigation NavigationRequest // EventNavigation
	URL        string            // EventLoadFinished
	Payload    string            // EventBinding
	Chooser    *FileChooser      // EventFileChooser
	Err        error             // EventClosed
}

// HistoryState 页面历史状态
type HistoryState struct {
	CurrentIndex int
	Entries      []HistoryEntry
}

// HistoryEntry 历史记录条目
type HistoryEntry struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// CanGoBack 当前条目之前是否还有历史
func (h HistoryState) CanGoBack() bool {
	return h.CurrentIndex > 0 && h.CurrentIndex < len(h.Entries)
}

// Previous 返回上一条历史
func (h HistoryState) Previous() (HistoryEntry, bool) {
	if !h.CanGoBack() {
		return HistoryEntry{}, false
	}
	return h.Entries[h.CurrentIndex-1], true
}

// VersionInfo 版本信息
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}
