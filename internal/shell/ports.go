package shell

import (
	"context"

	"siteshell/internal/cookiejar"
	"siteshell/pkg/domain"
)

// Surface 嵌入页面
type Surface interface {
	Prepare(ctx context.Context) error
	Events() <-chan domain.SurfaceEvent
	Cookies() cookiejar.Store

	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Proceed(ctx context.Context, req domain.NavigationRequest) error
	Abort(ctx context.Context, req domain.NavigationRequest) error
	CanGoBack(ctx context.Context) (bool, error)
	GoBack(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)

	Evaluate(ctx context.Context, script string) error
	SetRefreshing(ctx context.Context, active bool) error
	Close() error
}

// SurfaceFactory 打开嵌入页面
type SurfaceFactory func(ctx context.Context) (Surface, error)

// CookieJar 跨重启保存站点 Cookie
type CookieJar interface {
	Save(ctx context.Context) error
	Restore(ctx context.Context) error
	// Clear 清空浏览器 Cookie，onDone 在其他协程中调用
	Clear(ctx context.Context, onDone func(error))
	// Forget 删除持久化条目，只在主序列调用
	Forget(ctx context.Context) error
}

// JarFactory 基于页面的 Cookie 存储创建 Cookie Jar
type JarFactory func(store cookiejar.Store) CookieJar

// Connectivity 网络可达性检查
type Connectivity interface {
	Reachable(ctx context.Context) bool
}

// Notice 阻塞式提示框内容
type Notice struct {
	Title   string
	Message string
	Button  string
}

// Notifier 显示提示框，用户确认后返回
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// PickRequest 文件选择对话框参数
type PickRequest struct {
	Accept []string
}

// FilePicker 系统打开文件对话框，取消时返回空切片
type FilePicker interface {
	Pick(ctx context.Context, req PickRequest) ([]string, error)
}

// URLOpener 交给系统默认程序打开地址
type URLOpener interface {
	Open(url string) error
}

// Printer 打印指定地址
type Printer interface {
	Print(ctx context.Context, url string) error
}

// Journal 导航日志
type Journal interface {
	Record(kind, url, detailJSON string)
}

type nopJournal struct{}

func (nopJournal) Record(kind, url, detailJSON string) {}

// JobRunner 后台任务执行器，返回 false 表示任务未被接受
type JobRunner interface {
	Submit(name string, fn func(ctx context.Context)) bool
}

// goRunner 每个任务一个协程
type goRunner struct{ ctx context.Context }

func (r goRunner) Submit(name string, fn func(ctx context.Context)) bool {
	go fn(r.ctx)
	return true
}
