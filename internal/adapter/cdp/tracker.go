package cdp

import (
	"strings"
	"sync"
)

// expectationTTL 标记最多跨越的主框架加载完成次数
const expectationTTL = 2

type expectation struct {
	url  string
	seen int // 已经历的主框架加载完成次数
}

// loadTracker 记录主框架 ID 和由程序主动发起的加载，这些加载不经过导航分类直接放行。
// 标记按次数计，每次放行消费一次；消费时记下请求的 networkId，同一加载的重定向跳转随之放行。
// 未被消费的标记在第二次主框架加载完成时丢弃。
type loadTracker struct {
	mu        sync.Mutex
	mainFrame string
	expected  []expectation
	follow    map[string]int // networkId -> 已经历的加载完成次数
}

func newLoadTracker() *loadTracker {
	return &loadTracker{follow: make(map[string]int)}
}

func (t *loadTracker) setMainFrame(id string) {
	t.mu.Lock()
	t.mainFrame = id
	t.mu.Unlock()
}

// isMainFrame 未知主框架时视为主框架
func (t *loadTracker) isMainFrame(frameID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mainFrame == "" || t.mainFrame == frameID
}

// expect 标记即将由程序发起的加载地址
func (t *loadTracker) expect(url string) {
	t.mu.Lock()
	t.expected = append(t.expected, expectation{url: stripFragment(url)})
	t.mu.Unlock()
}

// forget 撤销一次未发出的加载标记
func (t *loadTracker) forget(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.take(stripFragment(url))
}

// consume 若请求属于程序发起的加载（或其重定向跳转）则返回 true
func (t *loadTracker) consume(url, networkID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if networkID != "" {
		if _, ok := t.follow[networkID]; ok {
			return true
		}
	}
	if !t.take(stripFragment(url)) {
		return false
	}
	if networkID != "" {
		t.follow[networkID] = 0
	}
	return true
}

func (t *loadTracker) take(url string) bool {
	for i, e := range t.expected {
		if e.url == url {
			t.expected = append(t.expected[:i], t.expected[i+1:]...)
			return true
		}
	}
	return false
}

// loadFinished 主框架加载完成，老化并丢弃过期的标记
func (t *loadTracker) loadFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.expected[:0]
	for _, e := range t.expected {
		e.seen++
		if e.seen < expectationTTL {
			kept = append(kept, e)
		}
	}
	t.expected = kept
	for id, seen := range t.follow {
		if seen+1 >= expectationTTL {
			delete(t.follow, id)
		} else {
			t.follow[id] = seen + 1
		}
	}
}

// pending 未消费的标记数
func (t *loadTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expected)
}

// stripFragment 拦截到的请求地址不含片段标识
func stripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}
