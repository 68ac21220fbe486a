package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"siteshell/internal/adapter/cdp"
	"siteshell/internal/browser"
	"siteshell/internal/config"
	"siteshell/internal/cookiejar"
	"siteshell/internal/launch"
	"siteshell/internal/logger"
	"siteshell/internal/netcheck"
	"siteshell/internal/pool"
	"siteshell/internal/printer"
	"siteshell/internal/shell"
	"siteshell/internal/storage/db"
	"siteshell/internal/storage/model"
	"siteshell/internal/storage/repo"
	"siteshell/pkg/api"
	"siteshell/pkg/domain"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"
	gl "gorm.io/gorm/logger"
)

// journalRetentionDays 导航记录保留天数
const journalRetentionDays = 30

// App 启动画面窗口，负责初始化存储、启动浏览器并运行站点会话。
type App struct {
	ctx       context.Context
	cfg       *config.Config
	log       logger.Logger
	version   domain.VersionInfo
	gdb       *gorm.DB
	prefsRepo *repo.PreferenceRepo
	eventRepo *repo.EventRepo
	screen    *launch.Screen
	jobs      *pool.Pool

	mu      sync.Mutex
	browser *browser.Browser
}

// NewApp 创建并返回一个新的 App 实例。
func NewApp(cfg *config.Config, log logger.Logger, version domain.VersionInfo) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &App{
		cfg:     cfg,
		log:     log,
		version: version,
		screen:  launch.NewScreen(cfg.Shell.LaunchDelay),
		// 打印任务串行执行，最多排队两个
		jobs: pool.New(1, 2, log.With("component", "jobs")),
	}
}

// Startup 初始化数据库和仓库，启动画面停留结束后进入站点会话。
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("应用启动", "version", a.version.Version)

	if err := a.initStorage(); err != nil {
		// 存储不可用时 Cookie 无法持久化，会话仍可运行
		a.log.Err(err, "数据库初始化失败")
	}

	a.jobs.Start(ctx)
	a.screen.Schedule(func() {
		runtime.WindowHide(ctx)
		a.runShell(ctx)
		runtime.Quit(ctx)
	})
}

func (a *App) initStorage() error {
	gormLogger := db.NewLogger(a.log).LogMode(gl.Warn)
	gdb, err := db.New(db.Options{
		Name:     a.cfg.Sqlite.Db,
		FullPath: a.cfg.Sqlite.Path,
		Prefix:   a.cfg.Sqlite.Prefix,
		Logger:   gormLogger,
	})
	if err != nil {
		return err
	}

	if err := db.Migrate(gdb, model.All()...); err != nil {
		_ = db.Close(gdb)
		return fmt.Errorf("migrate: %w", err)
	}

	a.gdb = gdb
	a.prefsRepo = repo.NewPreferenceRepo(gdb)
	a.eventRepo = repo.NewEventRepo(gdb, a.log, repo.EventRepoOptions{})

	if n, err := a.eventRepo.CleanupOldEvents(a.ctx, journalRetentionDays); err != nil {
		a.log.Err(err, "清理导航记录失败")
	} else if n > 0 {
		a.log.Info("已清理过期导航记录", "count", n)
	}

	a.log.Info("数据库初始化成功")
	return nil
}

// runShell 运行站点会话直到页面关闭或应用退出
func (a *App) runShell(ctx context.Context) {
	ctrl := shell.New(shell.Options{
		Root:            a.cfg.Site.Root,
		SignInURL:       a.cfg.Site.SignInURL,
		RefreshInterval: a.cfg.Shell.RefreshInterval,
		Logger:          a.log.With("component", "shell"),
	}, a.shellDeps(ctx))

	err := ctrl.Start(ctx)
	if err == nil {
		err = ctrl.Run(ctx)
	}
	if err == nil || errors.Is(err, domain.ErrNetworkUnavailable) {
		a.log.Info("会话结束")
		return
	}

	code, msg := a.translateError(err)
	if msg == "" {
		msg = err.Error()
	}
	_, _ = runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:    runtime.ErrorDialog,
		Title:   "Unable to start",
		Message: fmt.Sprintf("%s (%s)", msg, code),
	})
}

func (a *App) shellDeps(ctx context.Context) shell.Deps {
	d := dialogs{ctx: ctx, log: a.log}
	deps := shell.Deps{
		Surfaces: a.openSurface,
		Jars:     a.newJar,
		Net: netcheck.New(netcheck.Options{
			URL:      a.cfg.Site.Root,
			RetryMax: 1,
		}, a.log),
		Notifier: d,
		Picker:   d,
		Opener:   osOpener{},
		Printer:  shellPrinter{app: a},
		Jobs:     a.jobs,
	}
	if a.eventRepo != nil {
		deps.Journal = a.eventRepo
	}
	return deps
}

// openSurface 网络检查通过后才启动浏览器，再附着到应用窗口的页面
func (a *App) openSurface(ctx context.Context) (shell.Surface, error) {
	b, err := browser.Start(ctx, browser.Options{
		Logger:        a.log.With("component", "browser"),
		ExecPath:      a.cfg.Browser.Path,
		Args:          a.cfg.Browser.Args,
		Headless:      a.cfg.Browser.Headless,
		ClearUserData: true,
		AppURL:        "about:blank",
	})
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.browser = b
	a.mu.Unlock()
	a.log.Info("浏览器启动成功", "devToolsURL", b.DevToolsURL)

	s, err := cdp.OpenSurface(ctx, cdp.SurfaceOptions{
		DevToolsURL: b.DevToolsURL,
		Namespace:   a.cfg.Shell.BridgeNamespace,
		Logger:      a.log.With("component", "surface"),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) newJar(store cookiejar.Store) shell.CookieJar {
	opts := cookiejar.Options{
		Root:  a.cfg.Site.Root,
		Prefs: a.cfg.Cookies.Prefs,
		Key:   a.cfg.Cookies.Key,
	}
	if a.prefsRepo == nil {
		return cookiejar.New(store, &memoryPrefs{m: map[string]string{}}, opts, a.log)
	}
	return cookiejar.New(store, a.prefsRepo, opts, a.log)
}

func (a *App) devToolsURL() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.browser == nil {
		return "", domain.ErrBrowserNotRunning
	}
	return a.browser.DevToolsURL, nil
}

// Shutdown 关闭浏览器并释放存储。
func (a *App) Shutdown(ctx context.Context) {
	a.log.Info("应用关闭中...")
	a.jobs.Stop()

	a.mu.Lock()
	if a.browser != nil {
		_ = a.browser.Stop(2 * time.Second)
		a.browser = nil
	}
	a.mu.Unlock()

	if a.eventRepo != nil {
		a.eventRepo.Stop()
	}

	if a.gdb != nil {
		_ = db.Close(a.gdb)
	}

	a.log.Info("应用已关闭")
}

// GetVersion 获取应用版本号
func (a *App) GetVersion() api.Response[VersionData] {
	return api.OK(VersionData{
		Version: a.version.Version,
		Commit:  a.version.Commit,
		Site:    a.cfg.Site.Root,
	})
}

// shellPrinter 使用当前浏览器渲染并打印页面
type shellPrinter struct {
	app *App
}

func (p shellPrinter) Print(ctx context.Context, url string) error {
	devtools, err := p.app.devToolsURL()
	if err != nil {
		return err
	}
	return printer.New(printer.Options{
		DevToolsURL: devtools,
		Title:       p.app.cfg.Shell.PrintTitle,
		Logger:      p.app.log.With("component", "printer"),
	}).Print(ctx, url)
}

// memoryPrefs 数据库不可用时的进程内偏好存储
type memoryPrefs struct {
	mu sync.Mutex
	m  map[string]string
}

func (p *memoryPrefs) GetString(ctx context.Context, prefs, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[prefs+"/"+key]
	return v, ok, nil
}

func (p *memoryPrefs) PutString(ctx context.Context, prefs, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[prefs+"/"+key] = value
	return nil
}

func (p *memoryPrefs) Remove(ctx context.Context, prefs, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, prefs+"/"+key)
	return nil
}
