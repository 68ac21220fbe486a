package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"siteshell/internal/logger"
	"siteshell/pkg/domain"

	"github.com/mafredri/cdp/devtool"
)

// Options 浏览器启动选项
type Options struct {
	ExecPath            string   // 浏览器可执行文件路径
	UserDataDir         string   // 用户数据目录，为空时使用临时目录
	ClearUserData       bool     // 退出时删除用户数据目录
	RemoteDebuggingPort int      // CDP端口，0表示自动选择
	AppURL              string   // 以应用模式打开的地址（无地址栏、无标签页）
	WindowWidth         int      // 窗口宽度
	WindowHeight        int      // 窗口高度
	Headless            bool     // 是否以无头模式启动
	Args                []string // 额外启动参数
	Env                 []string // 额外环境变量
	Logger              logger.Logger
}

// Browser 已启动的浏览器进程句柄
type Browser struct {
	cmd         *exec.Cmd
	DevToolsURL string
	port        int
	dataDir     string
	clearData   bool
	log         logger.Logger
	done        chan struct{}
}

// Start 启动浏览器并等待CDP服务就绪
func Start(ctx context.Context, opts Options) (*Browser, error) {
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}

	exe := opts.ExecPath
	if exe == "" {
		exe = defaultChromePath()
	}
	if exe == "" {
		return nil, fmt.Errorf("%w: chrome executable not found", domain.ErrBrowserStartFailed)
	}

	port := opts.RemoteDebuggingPort
	if port == 0 {
		port = 9222
	}

	finalPort, err := pickPort(port)
	if err != nil {
		return nil, fmt.Errorf("failed to pick port: %w", err)
	}
	port = finalPort

	if opts.UserDataDir == "" {
		// 一次性配置目录，Cookie 只通过 Cookie Jar 跨进程保留
		dir, err := os.MkdirTemp("", "siteshell-chrome-")
		if err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		opts.UserDataDir = dir
		opts.ClearUserData = true
	} else if err := os.MkdirAll(opts.UserDataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	args := buildLaunchArgs(port, opts)
	cmd := exec.CommandContext(ctx, exe, args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBrowserStartFailed, err)
	}
	l.Info("浏览器已启动", "exe", exe, "port", port, "pid", cmd.Process.Pid)

	b := &Browser{
		cmd:         cmd,
		DevToolsURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		port:        port,
		dataDir:     opts.UserDataDir,
		clearData:   opts.ClearUserData,
		log:         l,
		done:        make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(b.done)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := waitDevToolsReady(waitCtx, b.DevToolsURL); err != nil {
		_ = b.Stop(2 * time.Second)
		return nil, fmt.Errorf("%w: %v", domain.ErrDevToolsUnreachable, err)
	}

	return b, nil
}

// Done 浏览器进程退出时关闭
func (b *Browser) Done() <-chan struct{} { return b.done }

// Stop 关闭浏览器进程，并按需删除配置目录
func (b *Browser) Stop(timeout time.Duration) error {
	if b == nil || b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	// Windows上直接Kill以避免悬挂
	_ = b.cmd.Process.Kill()

	var err error
	select {
	case <-time.After(timeout):
		err = errors.New("browser stop timeout")
	case <-b.done:
	}

	if b.clearData && b.dataDir != "" {
		if rmErr := os.RemoveAll(b.dataDir); rmErr != nil {
			b.log.Warn("删除浏览器配置目录失败", "dir", b.dataDir, "error", rmErr.Error())
		}
	}
	return err
}

// defaultChromePath 返回常见的 Chrome 可执行路径（跨平台）
func defaultChromePath() string {
	for _, p := range getChromePaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	for _, name := range []string{"chrome", "google-chrome", "chromium", "chromium-browser", "msedge"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}

	return ""
}

// getChromePaths 根据操作系统返回可能的 Chrome 路径
func getChromePaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Microsoft", "Edge", "Application", "msedge.exe"),
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			filepath.Join(os.Getenv("HOME"), "Applications", "Google Chrome.app", "Contents", "MacOS", "Google Chrome"),
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

// pickPort 尝试使用指定端口，如果被占用则选择随机空闲端口
func pickPort(preferred int) (int, error) {
	if preferred > 0 {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", preferred))
		if err == nil {
			_ = l.Close()
			return preferred, nil
		}
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find free port: %w", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// buildLaunchArgs 构建浏览器启动参数
func buildLaunchArgs(port int, opts Options) []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", port),
		fmt.Sprintf("--user-data-dir=%s", opts.UserDataDir),
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-background-networking",
		"--disable-breakpad",
		"--disable-client-side-phishing-detection",
		"--disable-default-apps",
		"--disable-extensions",
		"--disable-hang-monitor",
		"--disable-sync",
		"--disable-translate",
		"--metrics-recording-only",
		"--safebrowsing-disable-auto-update",
		// 页面滚动到顶部后的过度滚动交给页面脚本处理；
		// 关闭往返缓存，后退时总会产生可拦截的文档请求
		"--disable-features=OverscrollHistoryNavigation,Translate,BackForwardCache",
	}

	if runtime.GOOS == "linux" {
		args = append(args, "--disable-dev-shm-usage")
	}

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	if opts.Headless {
		args = append(args, "--headless=new", "--disable-gpu")
	}

	if len(opts.Args) > 0 {
		args = append(args, opts.Args...)
	}

	appURL := opts.AppURL
	if appURL == "" {
		appURL = "about:blank"
	}
	if opts.Headless {
		args = append(args, appURL)
	} else {
		args = append(args, "--app="+appURL)
	}

	return args
}

// waitDevToolsReady 轮询 DevTools 服务是否就绪
func waitDevToolsReady(ctx context.Context, base string) error {
	dt := devtool.New(base)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("devtools not ready after timeout: %w", ctx.Err())
		case <-ticker.C:
			reqCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			_, err := dt.Version(reqCtx)
			cancel()
			if err == nil {
				return nil
			}
		}
	}
}
