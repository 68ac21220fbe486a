package cdp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"siteshell/internal/bridge"
	"siteshell/internal/cookiejar"
	"siteshell/internal/logger"
	"siteshell/pkg/domain"

	"github.com/mafredri/cdp/protocol/dom"
	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/protocol/runtime"
	"golang.org/x/sync/errgroup"
)

const callTimeout = 5 * time.Second

// SurfaceOptions 嵌入页面配置
type SurfaceOptions struct {
	DevToolsURL string
	Namespace   string // 页面中暴露的对象名，如 Android
	BindingName string
	Logger      logger.Logger
}

// Surface 基于 CDP 页面目标的嵌入页面实现
type Surface struct {
	sess    *TargetSession
	icp     *Interceptor
	tracker *loadTracker
	cookies *CookieStore
	log     logger.Logger
	opts    SurfaceOptions

	events    chan domain.SurfaceEvent
	prepared  bool
	closeOnce sync.Once
}

// OpenSurface 附着到浏览器的页面目标
func OpenSurface(ctx context.Context, opts SurfaceOptions) (*Surface, error) {
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}
	if opts.BindingName == "" {
		opts.BindingName = bridge.BindingName
	}

	sess, err := AttachPage(ctx, opts.DevToolsURL, l)
	if err != nil {
		return nil, err
	}
	return newSurface(sess, opts, l), nil
}

func newSurface(sess *TargetSession, opts SurfaceOptions, l logger.Logger) *Surface {
	return &Surface{
		sess:    sess,
		icp:     NewInterceptor(l),
		tracker: newLoadTracker(),
		cookies: &CookieStore{client: sess.Client},
		log:     l,
		opts:    opts,
		events:  make(chan domain.SurfaceEvent, 32),
	}
}

// Events 推送到主序列的事件，页面关闭后通道关闭
func (s *Surface) Events() <-chan domain.SurfaceEvent { return s.events }

// Cookies 页面的 Cookie 存储
func (s *Surface) Cookies() cookiejar.Store { return s.cookies }

// Prepare 启用所需的 CDP 域、注入桥接脚本并开始消费事件。
// 所有事件流在返回前订阅完成，之后的导航不会丢事件。
func (s *Surface) Prepare(ctx context.Context) error {
	if s.prepared {
		return nil
	}
	c := s.sess.Client

	if err := c.Page.Enable(ctx); err != nil {
		return fmt.Errorf("page enable: %w", err)
	}
	if err := c.Runtime.Enable(ctx); err != nil {
		return fmt.Errorf("runtime enable: %w", err)
	}
	if err := c.Network.Enable(ctx, nil); err != nil {
		return fmt.Errorf("network enable: %w", err)
	}

	tree, err := c.Page.GetFrameTree(ctx)
	if err != nil {
		return fmt.Errorf("get frame tree: %w", err)
	}
	s.tracker.setMainFrame(string(tree.FrameTree.Frame.ID))

	if err := c.Runtime.AddBinding(ctx, &runtime.AddBindingArgs{Name: s.opts.BindingName}); err != nil {
		return fmt.Errorf("add binding: %w", err)
	}
	script := bridge.PageScript(s.opts.Namespace, s.opts.BindingName)
	if _, err := c.Page.AddScriptToEvaluateOnNewDocument(ctx, &page.AddScriptToEvaluateOnNewDocumentArgs{Source: script}); err != nil {
		return fmt.Errorf("inject page script: %w", err)
	}
	if err := c.Page.SetInterceptFileChooserDialog(ctx, &page.SetInterceptFileChooserDialogArgs{Enabled: true}); err != nil {
		return fmt.Errorf("intercept file chooser: %w", err)
	}

	g, gctx := errgroup.WithContext(s.sess.Ctx)

	paused, err := s.icp.Subscribe(gctx, c)
	if err != nil {
		return err
	}
	stopped, err := c.Page.FrameStoppedLoading(gctx)
	if err != nil {
		_ = paused.Close()
		return fmt.Errorf("subscribe frame stopped loading: %w", err)
	}
	bindings, err := c.Runtime.BindingCalled(gctx)
	if err != nil {
		_ = paused.Close()
		_ = stopped.Close()
		return fmt.Errorf("subscribe binding called: %w", err)
	}
	choosers, err := c.Page.FileChooserOpened(gctx)
	if err != nil {
		_ = paused.Close()
		_ = stopped.Close()
		_ = bindings.Close()
		return fmt.Errorf("subscribe file chooser: %w", err)
	}

	if err := s.icp.Enable(ctx, c); err != nil {
		_ = paused.Close()
		_ = stopped.Close()
		_ = bindings.Close()
		_ = choosers.Close()
		return fmt.Errorf("fetch enable: %w", err)
	}

	g.Go(func() error {
		return s.icp.Consume(gctx, c, paused, s.onRequestPaused)
	})

	g.Go(func() error {
		defer stopped.Close()
		for {
			ev, err := stopped.Recv()
			if err != nil {
				return err
			}
			if !s.tracker.isMainFrame(string(ev.FrameID)) {
				continue
			}
			s.tracker.loadFinished()
			s.emit(gctx, domain.SurfaceEvent{Kind: domain.EventLoadFinished})
		}
	})

	g.Go(func() error {
		defer bindings.Close()
		for {
			ev, err := bindings.Recv()
			if err != nil {
				return err
			}
			if ev.Name != s.opts.BindingName {
				continue
			}
			s.emit(gctx, domain.SurfaceEvent{Kind: domain.EventBinding, Payload: ev.Payload})
		}
	})

	g.Go(func() error {
		defer choosers.Close()
		for {
			ev, err := choosers.Recv()
			if err != nil {
				return err
			}
			fc := s.fileChooser(gctx, ev)
			if fc == nil {
				continue
			}
			s.emit(gctx, domain.SurfaceEvent{Kind: domain.EventFileChooser, Chooser: fc})
		}
	})

	go func() {
		err := g.Wait()
		s.log.Info("页面事件流结束", "error", errString(err))
		// 发送方均已退出，可以安全关闭通道
		select {
		case s.events <- domain.SurfaceEvent{Kind: domain.EventClosed, Err: err}:
		default:
		}
		close(s.events)
	}()

	s.prepared = true
	return nil
}

func (s *Surface) emit(ctx context.Context, ev domain.SurfaceEvent) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// onRequestPaused 子框架和程序发起的加载（含其重定向）直接放行，其余交给主序列分类
func (s *Surface) onRequestPaused(ev *fetch.RequestPausedReply) {
	var networkID string
	if ev.NetworkID != nil {
		networkID = string(*ev.NetworkID)
	}
	if !s.tracker.isMainFrame(string(ev.FrameID)) || s.tracker.consume(ev.Request.URL, networkID) {
		_ = s.icp.ContinueRequest(s.sess.Ctx, s.sess.Client, ev.RequestID)
		return
	}
	s.emit(s.sess.Ctx, domain.SurfaceEvent{Kind: domain.EventNavigation, Navigation: toNavigationRequest(ev)})
}

// fileChooser 读取 input 元素的 accept 属性，构造文件选择请求
func (s *Surface) fileChooser(ctx context.Context, ev *page.FileChooserOpenedReply) *domain.FileChooser {
	if ev.BackendNodeID == nil {
		s.log.Warn("文件选择请求缺少 input 节点，忽略")
		return nil
	}
	nodeID := *ev.BackendNodeID

	fc := &domain.FileChooser{Multiple: string(ev.Mode) == "selectMultiple"}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	desc, err := s.sess.Client.DOM.DescribeNode(callCtx, &dom.DescribeNodeArgs{BackendNodeID: &nodeID})
	if err != nil {
		s.log.Err(err, "读取文件选择节点失败")
	} else if accept, ok := attribute(desc.Node.Attributes, "accept"); ok {
		fc.Accept = parseAccept(accept)
	}

	fc.Resolve = func(paths []string) error {
		// 未选择文件时不回填，页面保持原状
		if len(paths) == 0 {
			return nil
		}
		ctx, cancel := context.WithTimeout(s.sess.Ctx, callTimeout)
		defer cancel()
		return s.sess.Client.DOM.SetFileInputFiles(ctx, &dom.SetFileInputFilesArgs{
			Files:         paths,
			BackendNodeID: &nodeID,
		})
	}
	return fc
}

// Proceed 放行被暂停的导航
func (s *Surface) Proceed(ctx context.Context, req domain.NavigationRequest) error {
	return s.icp.ContinueRequest(ctx, s.sess.Client, fetch.RequestID(req.ID))
}

// Abort 中止被暂停的导航
func (s *Surface) Abort(ctx context.Context, req domain.NavigationRequest) error {
	return s.icp.AbortRequest(ctx, s.sess.Client, fetch.RequestID(req.ID))
}

// Navigate 由程序发起加载，不经过导航分类。调用会阻塞到导航提交或失败。
func (s *Surface) Navigate(ctx context.Context, url string) error {
	s.tracker.expect(url)
	reply, err := s.sess.Client.Page.Navigate(ctx, &page.NavigateArgs{URL: url})
	if err != nil {
		s.tracker.forget(url)
		return fmt.Errorf("navigate: %w", err)
	}
	if reply.ErrorText != nil {
		s.log.Debug("页面加载返回错误", "url", url, "error", *reply.ErrorText)
	}
	return nil
}

// Reload 重新加载当前页面
func (s *Surface) Reload(ctx context.Context) error {
	cur, err := s.CurrentURL(ctx)
	if err == nil && cur != "" {
		s.tracker.expect(cur)
	}
	if err := s.sess.Client.Page.Reload(ctx, &page.ReloadArgs{}); err != nil {
		if cur != "" {
			s.tracker.forget(cur)
		}
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// History 页面导航历史
func (s *Surface) History(ctx context.Context) (domain.HistoryState, error) {
	reply, err := s.sess.Client.Page.GetNavigationHistory(ctx)
	if err != nil {
		return domain.HistoryState{}, fmt.Errorf("navigation history: %w", err)
	}
	return toHistoryState(reply), nil
}

// CanGoBack 当前条目之前是否还有历史
func (s *Surface) CanGoBack(ctx context.Context) (bool, error) {
	h, err := s.History(ctx)
	if err != nil {
		return false, err
	}
	return h.CanGoBack(), nil
}

// GoBack 后退一步
func (s *Surface) GoBack(ctx context.Context) error {
	h, err := s.History(ctx)
	if err != nil {
		return err
	}
	prev, ok := h.Previous()
	if !ok {
		return nil
	}
	s.tracker.expect(prev.URL)
	if err := s.sess.Client.Page.NavigateToHistoryEntry(ctx, &page.NavigateToHistoryEntryArgs{EntryID: prev.ID}); err != nil {
		s.tracker.forget(prev.URL)
		return fmt.Errorf("navigate to history entry: %w", err)
	}
	return nil
}

// CurrentURL 当前页面地址
func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	h, err := s.History(ctx)
	if err != nil {
		return "", err
	}
	if h.CurrentIndex < 0 || h.CurrentIndex >= len(h.Entries) {
		return "", nil
	}
	return h.Entries[h.CurrentIndex].URL, nil
}

// Evaluate 在页面中执行脚本，脚本异常只记录日志
func (s *Surface) Evaluate(ctx context.Context, script string) error {
	reply, err := s.sess.Client.Runtime.Evaluate(ctx, &runtime.EvaluateArgs{Expression: script})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if reply.ExceptionDetails != nil {
		s.log.Debug("页面脚本异常", "text", reply.ExceptionDetails.Text)
	}
	return nil
}

// SetRefreshing 显示或隐藏刷新指示条
func (s *Surface) SetRefreshing(ctx context.Context, active bool) error {
	return s.Evaluate(ctx, bridge.RefreshIndicatorScript(active))
}

// Close 断开与页面的连接
func (s *Surface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.sess.Close()
		if !s.prepared {
			close(s.events)
		}
	})
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
