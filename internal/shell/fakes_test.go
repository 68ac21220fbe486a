package shell

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"siteshell/internal/cookiejar"
	"siteshell/pkg/domain"
)

// callLog 按顺序记录跨端口的调用
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// indexOf 返回调用首次出现的位置，不存在时为 -1
func (l *callLog) indexOf(s string) int {
	for i, c := range l.snapshot() {
		if c == s {
			return i
		}
	}
	return -1
}

type fakeStore struct {
	mu     sync.Mutex
	log    *callLog
	header string
	set    []string
}

func (s *fakeStore) Cookie(ctx context.Context, url string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header, s.header != "", nil
}

func (s *fakeStore) SetCookie(ctx context.Context, url, fragment string) error {
	s.mu.Lock()
	s.set = append(s.set, fragment)
	s.mu.Unlock()
	s.log.add("set:" + fragment)
	return nil
}

func (s *fakeStore) RemoveAll(ctx context.Context) error {
	s.mu.Lock()
	s.header = ""
	s.mu.Unlock()
	s.log.add("store.removeAll")
	return nil
}

func (s *fakeStore) Flush(ctx context.Context) error { return nil }

func (s *fakeStore) setHeader(h string) {
	s.mu.Lock()
	s.header = h
	s.mu.Unlock()
}

func (s *fakeStore) restored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.set...)
}

type fakePrefs struct {
	mu sync.Mutex
	m  map[string]string
}

func (p *fakePrefs) GetString(ctx context.Context, prefs, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[prefs+"/"+key]
	return v, ok, nil
}

func (p *fakePrefs) PutString(ctx context.Context, prefs, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[prefs+"/"+key] = value
	return nil
}

func (p *fakePrefs) Remove(ctx context.Context, prefs, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, prefs+"/"+key)
	return nil
}

func (p *fakePrefs) stored() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m["CookiesPrefs/CookiesKey"]
	return v, ok
}

// recordingJar 记录 Clear 与 Forget 的调用时刻后委托给真实的 Cookie Jar
type recordingJar struct {
	CookieJar
	log *callLog
}

func (j recordingJar) Clear(ctx context.Context, onDone func(error)) {
	j.log.add("jar.clear")
	j.CookieJar.Clear(ctx, onDone)
}

func (j recordingJar) Forget(ctx context.Context) error {
	j.log.add("jar.forget")
	return j.CookieJar.Forget(ctx)
}

var _ cookiejar.Store = (*fakeStore)(nil)

type fakeSurface struct {
	mu        sync.Mutex
	log       *callLog
	events    chan domain.SurfaceEvent
	store     *fakeStore
	reloadErr error
	canGoBack bool
	current   string
	// navGate 非空时 Navigate 阻塞到其关闭，模拟导航迟迟不提交
	navGate chan struct{}

	reloads    int
	goBacks    int
	navigated  []string
	evaluated  []string
	refreshing []bool
	closed     bool
}

func (s *fakeSurface) Prepare(ctx context.Context) error {
	s.log.add("prepare")
	return nil
}

func (s *fakeSurface) Events() <-chan domain.SurfaceEvent { return s.events }
func (s *fakeSurface) Cookies() cookiejar.Store           { return s.store }

func (s *fakeSurface) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.navigated = append(s.navigated, url)
	gate := s.navGate
	s.mu.Unlock()
	s.log.add("navigate:" + url)
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSurface) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.reloads++
	err := s.reloadErr
	s.mu.Unlock()
	s.log.add("reload")
	return err
}

func (s *fakeSurface) Proceed(ctx context.Context, req domain.NavigationRequest) error {
	s.log.add("proceed:" + req.URL)
	return nil
}

func (s *fakeSurface) Abort(ctx context.Context, req domain.NavigationRequest) error {
	s.log.add("abort:" + req.URL)
	return nil
}

func (s *fakeSurface) CanGoBack(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canGoBack, nil
}

func (s *fakeSurface) GoBack(ctx context.Context) error {
	s.mu.Lock()
	s.goBacks++
	s.mu.Unlock()
	s.log.add("goBack")
	return nil
}

func (s *fakeSurface) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *fakeSurface) Evaluate(ctx context.Context, script string) error {
	s.mu.Lock()
	s.evaluated = append(s.evaluated, script)
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) SetRefreshing(ctx context.Context, active bool) error {
	s.mu.Lock()
	s.refreshing = append(s.refreshing, active)
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) reloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloads
}

func (s *fakeSurface) refreshStates() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.refreshing...)
}

func (s *fakeSurface) evaluatedScripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.evaluated...)
}

func (s *fakeSurface) navigatedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

func (s *fakeSurface) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeNet struct {
	reachable atomic.Bool
	checks    atomic.Int32
}

func (n *fakeNet) Reachable(ctx context.Context) bool {
	n.checks.Add(1)
	return n.reachable.Load()
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *fakeNotifier) Notify(ctx context.Context, notice Notice) error {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
	return nil
}

// fakePicker 按 accept 的第一项阻塞等待测试给出的结果
type fakePicker struct {
	mu      sync.Mutex
	replies map[string]chan []string
}

func (p *fakePicker) reply(accept string) chan []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.replies == nil {
		p.replies = map[string]chan []string{}
	}
	ch, ok := p.replies[accept]
	if !ok {
		ch = make(chan []string, 1)
		p.replies[accept] = ch
	}
	return ch
}

func (p *fakePicker) Pick(ctx context.Context, req PickRequest) ([]string, error) {
	key := ""
	if len(req.Accept) > 0 {
		key = req.Accept[0]
	}
	select {
	case paths := <-p.reply(key):
		return paths, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeOpener struct {
	mu     sync.Mutex
	log    *callLog
	opened []string
	err    error
}

func (o *fakeOpener) Open(url string) error {
	o.mu.Lock()
	o.opened = append(o.opened, url)
	o.mu.Unlock()
	o.log.add("open:" + url)
	return o.err
}

type fakePrinter struct {
	printed chan string
}

func (p *fakePrinter) Print(ctx context.Context, url string) error {
	p.printed <- url
	return nil
}

type fakeJournal struct {
	mu    sync.Mutex
	kinds []string
}

func (j *fakeJournal) Record(kind, url, detailJSON string) {
	j.mu.Lock()
	j.kinds = append(j.kinds, kind)
	j.mu.Unlock()
}

func (j *fakeJournal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.kinds...)
}

type fakeTimer struct {
	mu      sync.Mutex
	ch      chan time.Time
	initial time.Duration
	resets  []time.Duration
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.mu.Lock()
	t.resets = append(t.resets, d)
	t.mu.Unlock()
	return false
}

func (t *fakeTimer) Stop() bool { return false }

func (t *fakeTimer) resetHistory() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.resets...)
}

type fakeClock struct {
	timer *fakeTimer
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.timer = &fakeTimer{ch: make(chan time.Time, 1), initial: d}
	return c.timer
}
