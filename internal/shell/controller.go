package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"siteshell/internal/bridge"
	"siteshell/internal/logger"
	"siteshell/internal/navigation"
	"siteshell/internal/upload"
	"siteshell/pkg/domain"

	"github.com/bep/debounce"
	"github.com/tidwall/sjson"
	"golang.org/x/time/rate"
)

// profilePicScript 页面加载完成后为头像地址追加时间戳，绕过缓存
const profilePicScript = `(function() { var img = document.getElementById('profile-pic'); if (img) { img.src = img.src.split('?')[0] + '?' + new Date().getTime(); } })();`

// noNetworkNotice 启动时网络不可用的提示
var noNetworkNotice = Notice{
	Title:   "No internet connection available",
	Message: "Please check your mobile data or Wi-Fi network.",
	Button:  "Ok",
}

// Options 控制器配置
type Options struct {
	Root            string
	SignInURL       string
	RefreshInterval time.Duration
	RefreshDebounce time.Duration
	PrintInterval   time.Duration
	Logger          logger.Logger
}

// Deps 控制器依赖的外部端口
type Deps struct {
	Surfaces SurfaceFactory
	Jars     JarFactory
	Net      Connectivity
	Notifier Notifier
	Picker   FilePicker
	Opener   URLOpener
	Printer  Printer
	Journal  Journal
	Clock    Clock
	// Jobs 执行打印等后台任务，为空时每个任务单独起协程
	Jobs JobRunner
	// Debounce 合并短时间内的重复调用，为空时按 RefreshDebounce 创建
	Debounce func(f func())
}

// Controller 会话与导航控制器。除 Start 外，所有状态只在 Run 所在的协程中访问。
type Controller struct {
	opts   Options
	deps   Deps
	log    logger.Logger
	policy navigation.Policy

	surface Surface
	jar     CookieJar
	timer   Timer

	internal   chan any
	done       chan struct{}
	doneOnce   sync.Once
	refreshing bool
	uploads    upload.Slot
	printLimit *rate.Limiter
}

// New 创建控制器
func New(opts Options, deps Deps) *Controller {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 120 * time.Second
	}
	if opts.RefreshDebounce <= 0 {
		opts.RefreshDebounce = 300 * time.Millisecond
	}
	if opts.PrintInterval <= 0 {
		opts.PrintInterval = 2 * time.Second
	}
	if deps.Journal == nil {
		deps.Journal = nopJournal{}
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Debounce == nil {
		deps.Debounce = debounce.New(opts.RefreshDebounce)
	}

	return &Controller{
		opts:       opts,
		deps:       deps,
		log:        opts.Logger,
		policy:     navigation.NewPolicy(opts.Root, opts.SignInURL),
		internal:   make(chan any, 64),
		done:       make(chan struct{}),
		printLimit: rate.NewLimiter(rate.Every(opts.PrintInterval), 1),
	}
}

// Start 检查网络、打开页面、恢复 Cookie 并发起站点首页加载，不等待加载提交。
// 网络不可用时显示提示并返回 domain.ErrNetworkUnavailable。
func (c *Controller) Start(ctx context.Context) error {
	if !c.deps.Net.Reachable(ctx) {
		c.log.Warn("网络不可用，终止启动", "root", c.opts.Root)
		if err := c.deps.Notifier.Notify(ctx, noNetworkNotice); err != nil {
			c.log.Err(err, "显示网络提示失败")
		}
		return domain.ErrNetworkUnavailable
	}

	s, err := c.deps.Surfaces(ctx)
	if err != nil {
		return fmt.Errorf("open surface: %w", err)
	}
	if err := s.Prepare(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("prepare surface: %w", err)
	}
	c.surface = s
	c.jar = c.deps.Jars(s.Cookies())

	if err := c.jar.Restore(ctx); err != nil {
		c.log.Err(err, "恢复 Cookie 失败")
	}

	root := c.opts.Root
	c.load(ctx, "root", func(ctx context.Context) error { return s.Navigate(ctx, root) })

	// 首次定时刷新立即执行
	c.timer = c.deps.Clock.NewTimer(0)
	c.log.Info("会话已启动", "root", c.opts.Root)
	return nil
}

// Run 主序列。页面关闭、无历史可后退或 ctx 取消时返回 nil。
func (c *Controller) Run(ctx context.Context) error {
	if c.surface == nil {
		return errors.New("controller not started")
	}
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("主序列退出", "reason", ctx.Err().Error())
			return nil
		case ev, ok := <-c.surface.Events():
			if !ok || c.handleSurface(ctx, ev) {
				return nil
			}
		case ev := <-c.internal:
			if c.handleInternal(ctx, ev) {
				return nil
			}
		case <-c.timer.C():
			c.tick(ctx)
		}
	}
}

func (c *Controller) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
	if c.timer != nil {
		c.timer.Stop()
	}
	if err := c.uploads.Cancel(); err != nil {
		c.log.Debug("取消待处理文件选择失败", "error", err.Error())
	}
	if err := c.surface.Close(); err != nil {
		c.log.Debug("关闭页面连接失败", "error", err.Error())
	}
}

// post 把异步结果投递回主序列，主序列已退出时丢弃
func (c *Controller) post(ev any) {
	select {
	case c.internal <- ev:
	case <-c.done:
	}
}

func (c *Controller) handleSurface(ctx context.Context, ev domain.SurfaceEvent) (exit bool) {
	switch ev.Kind {
	case domain.EventNavigation:
		c.onNavigation(ctx, ev.Navigation)
	case domain.EventLoadFinished:
		c.onLoadFinished(ctx)
	case domain.EventBinding:
		return c.onBinding(ctx, ev.Payload)
	case domain.EventFileChooser:
		c.onFileChooser(ctx, ev.Chooser)
	case domain.EventClosed:
		if ev.Err != nil {
			c.log.Info("页面已关闭", "error", ev.Err.Error())
		} else {
			c.log.Info("页面已关闭")
		}
		return true
	default:
		c.log.Warn("未知页面事件", "kind", ev.Kind.String())
	}
	return false
}

func (c *Controller) handleInternal(ctx context.Context, ev any) (exit bool) {
	switch e := ev.(type) {
	case clearDone:
		if e.err != nil {
			c.log.Err(e.err, "清空浏览器 Cookie 失败")
		}
		if err := c.jar.Forget(ctx); err != nil {
			c.log.Err(err, "删除已保存的 Cookie 失败")
		}
		if next := e.next; next != "" {
			s := c.surface
			c.load(ctx, "navigate", func(ctx context.Context) error { return s.Navigate(ctx, next) })
		}
	case refreshRequested:
		c.refreshing = true
		if err := c.surface.SetRefreshing(ctx, true); err != nil {
			c.log.Debug("显示刷新指示失败", "error", err.Error())
		}
		c.load(ctx, "refresh", c.surface.Reload)
	case loadDone:
		if e.err == nil {
			break
		}
		c.log.Err(e.err, "加载页面失败", "action", e.action)
		if e.action == "refresh" && c.refreshing {
			c.refreshing = false
			if err := c.surface.SetRefreshing(ctx, false); err != nil {
				c.log.Debug("隐藏刷新指示失败", "error", err.Error())
			}
		}
	case pickDone:
		paths := e.paths
		if e.err != nil {
			c.log.Err(e.err, "文件选择失败")
			paths = nil
		}
		ok, err := c.uploads.Complete(e.id, paths)
		if err != nil {
			c.log.Err(err, "回填文件失败")
		}
		if !ok {
			c.log.Debug("文件选择结果已过期", "requestID", e.id)
		}
	case tickDone:
		if e.reachable {
			c.load(ctx, "autoRefresh", c.surface.Reload)
		} else {
			c.log.Debug("网络不可用，跳过本次定时刷新")
		}
		c.timer.Reset(c.opts.RefreshInterval)
	default:
		c.log.Warn("未知内部事件", "type", fmt.Sprintf("%T", ev))
	}
	return false
}

// load 程序发起的加载可能阻塞到导航提交，离开主序列执行，
// 期间页面产生的重定向仍由主序列分类。完成后投递 loadDone。
func (c *Controller) load(ctx context.Context, action string, fn func(ctx context.Context) error) {
	go func() {
		c.post(loadDone{action: action, err: fn(ctx)})
	}()
}

// tick 连通性检查离开主序列执行，完成后再刷新并重新计时
func (c *Controller) tick(ctx context.Context) {
	go func() {
		c.post(tickDone{reachable: c.deps.Net.Reachable(ctx)})
	}()
}

func (c *Controller) onNavigation(ctx context.Context, req domain.NavigationRequest) {
	decision := c.policy.Classify(req.URL)
	c.record(decision.String(), req.URL, "requestId", req.ID)

	switch decision {
	case navigation.SignIn:
		// 先开始清空 Cookie，再放行登录页；清空完成后重新加载登录页，避免沿用旧 Cookie
		signIn := c.opts.SignInURL
		c.jar.Clear(ctx, func(err error) { c.post(clearDone{next: signIn, err: err}) })
		fallthrough
	case navigation.Internal:
		if err := c.surface.Proceed(ctx, req); err != nil {
			c.log.Err(err, "放行导航失败", "url", req.URL)
		}
	case navigation.External:
		if err := c.surface.Abort(ctx, req); err != nil {
			c.log.Err(err, "中止导航失败", "url", req.URL)
		}
		if err := c.deps.Opener.Open(req.URL); err != nil {
			c.log.Debug("没有可处理该地址的程序", "url", req.URL, "error", err.Error())
		}
	}
}

func (c *Controller) onLoadFinished(ctx context.Context) {
	if c.refreshing {
		c.refreshing = false
		if err := c.surface.SetRefreshing(ctx, false); err != nil {
			c.log.Debug("隐藏刷新指示失败", "error", err.Error())
		}
	}
	if err := c.jar.Save(ctx); err != nil {
		c.log.Err(err, "保存 Cookie 失败")
	}
	if err := c.surface.Evaluate(ctx, profilePicScript); err != nil {
		c.log.Debug("刷新头像失败", "error", err.Error())
	}
}

func (c *Controller) onBinding(ctx context.Context, payload string) (exit bool) {
	cmd, err := bridge.Decode(payload)
	if err != nil {
		c.log.Warn("忽略无效的桥接调用", "payload", payload, "error", err.Error())
		return false
	}
	c.record("bridge", "", "command", string(cmd))

	switch cmd {
	case bridge.CommandPrint:
		c.print(ctx)
	case bridge.CommandLogout:
		signIn := c.opts.SignInURL
		c.jar.Clear(ctx, func(err error) { c.post(clearDone{next: signIn, err: err}) })
	case bridge.CommandRefresh:
		c.deps.Debounce(func() { c.post(refreshRequested{}) })
	case bridge.CommandBack:
		ok, err := c.surface.CanGoBack(ctx)
		if err != nil {
			c.log.Err(err, "读取页面历史失败")
			return false
		}
		if !ok {
			c.log.Info("没有可后退的历史，退出")
			return true
		}
		c.load(ctx, "back", c.surface.GoBack)
	}
	return false
}

// print 打印当前页面，限速且不等待结果
func (c *Controller) print(ctx context.Context) {
	if !c.printLimit.Allow() {
		c.log.Debug("打印请求过于频繁，忽略")
		return
	}
	url, err := c.surface.CurrentURL(ctx)
	if err != nil || url == "" {
		c.log.Warn("无法获取当前页面地址，取消打印")
		return
	}
	jobs := c.deps.Jobs
	if jobs == nil {
		jobs = goRunner{ctx: ctx}
	}
	ok := jobs.Submit("print", func(jobCtx context.Context) {
		if err := c.deps.Printer.Print(jobCtx, url); err != nil {
			c.log.Err(err, "打印失败", "url", url)
		}
	})
	if !ok {
		c.log.Warn("打印队列已满，忽略本次打印", "url", url)
	}
}

func (c *Controller) onFileChooser(ctx context.Context, fc *domain.FileChooser) {
	req := upload.NewRequest(fc)
	if err := c.uploads.Replace(req); err != nil {
		c.log.Debug("回填被替换的文件选择失败", "error", err.Error())
	}

	if req.Multiple {
		c.log.Debug("页面允许多选，只回填一个文件", "requestID", req.ID)
	}
	pick := PickRequest{Accept: req.Accept}
	go func() {
		paths, err := c.deps.Picker.Pick(ctx, pick)
		c.post(pickDone{id: req.ID, paths: paths, err: err})
	}()
}

// record 记录导航日志，detail 为成对的键值
func (c *Controller) record(kind, url string, detail ...string) {
	js := "{}"
	for i := 0; i+1 < len(detail); i += 2 {
		if v, err := sjson.Set(js, detail[i], detail[i+1]); err == nil {
			js = v
		}
	}
	c.deps.Journal.Record(kind, url, js)
}
