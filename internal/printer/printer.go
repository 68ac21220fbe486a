package printer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	cdpadapter "siteshell/internal/adapter/cdp"
	"siteshell/internal/logger"
	"siteshell/pkg/errx"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/protocol/target"
	"github.com/mafredri/cdp/rpcc"
	"github.com/pkg/browser"
)

// Options 打印配置
type Options struct {
	DevToolsURL string
	Title       string        // 打印任务名，也是 PDF 文件名前缀
	SpoolDir    string        // PDF 暂存目录
	LoadTimeout time.Duration // 后台页面加载超时
	Logger      logger.Logger
}

// Printer 在后台页面中重新加载地址、导出 PDF 并提交到系统打印服务
type Printer struct {
	opts   Options
	log    logger.Logger
	submit func(ctx context.Context, title, path string) error
}

// New 创建打印器
func New(opts Options) *Printer {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Title == "" {
		opts.Title = "Invoice Print"
	}
	if opts.SpoolDir == "" {
		opts.SpoolDir = filepath.Join(os.TempDir(), "siteshell-print")
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	p := &Printer{opts: opts, log: opts.Logger}
	p.submit = p.submitToOS
	return p
}

// Print 打印指定地址。页面不会收到完成通知，调用方只需记录错误。
func (p *Printer) Print(ctx context.Context, url string) error {
	start := time.Now()
	data, err := p.renderPDF(ctx, url)
	if err != nil {
		return errx.Wrap(errx.CodePrintFailed, err, "渲染 PDF 失败")
	}

	path := spoolPath(p.opts.SpoolDir, p.opts.Title, uuid.NewString())
	if err := os.MkdirAll(p.opts.SpoolDir, 0o700); err != nil {
		return errx.Wrap(errx.CodePrintFailed, err, "创建打印目录失败")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errx.Wrap(errx.CodePrintFailed, err, "写入 PDF 失败")
	}
	p.log.Info("PDF 已生成", "path", path, "size", humanize.Bytes(uint64(len(data))), "elapsed", time.Since(start).String())

	if err := p.submit(ctx, p.opts.Title, path); err != nil {
		return errx.Wrap(errx.CodePrintFailed, err, "提交打印任务失败")
	}
	p.log.Info("打印任务已提交", "title", p.opts.Title)
	return nil
}

// renderPDF 新建后台目标，重新加载地址后导出 PDF，完成后关闭目标
func (p *Printer) renderPDF(ctx context.Context, url string) ([]byte, error) {
	ver, err := devtool.New(p.opts.DevToolsURL).Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser version: %w", err)
	}

	conn, err := rpcc.DialContext(ctx, ver.WebSocketDebuggerURL)
	if err != nil {
		return nil, fmt.Errorf("dial browser: %w", err)
	}
	defer conn.Close()
	bc := cdp.NewClient(conn)

	background := true
	created, err := bc.Target.CreateTarget(ctx, &target.CreateTargetArgs{
		URL:        "about:blank",
		NewWindow:  &background,
		Background: &background,
	})
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := bc.Target.CloseTarget(closeCtx, &target.CloseTargetArgs{TargetID: created.TargetID}); err != nil {
			p.log.Warn("关闭打印目标失败", "error", err.Error())
		}
	}()

	sess, err := cdpadapter.AttachTarget(ctx, p.opts.DevToolsURL, string(created.TargetID), p.log)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	c := sess.Client

	if err := c.Page.Enable(ctx); err != nil {
		return nil, fmt.Errorf("page enable: %w", err)
	}
	// 事件流绑定超时上下文，超时后 Recv 返回错误
	waitCtx, cancel := context.WithTimeout(ctx, p.opts.LoadTimeout)
	defer cancel()
	loaded, err := c.Page.LoadEventFired(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("subscribe load event: %w", err)
	}
	defer loaded.Close()

	if _, err := c.Page.Navigate(ctx, &page.NavigateArgs{URL: url}); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if _, err := loaded.Recv(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	printBackground := true
	reply, err := c.Page.PrintToPDF(ctx, &page.PrintToPDFArgs{PrintBackground: &printBackground})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return reply.Data, nil
}

// submitToOS 类 Unix 系统交给 lp，其余系统用默认程序打开 PDF
func (p *Printer) submitToOS(ctx context.Context, title, path string) error {
	name, args, ok := submitCommand(runtime.GOOS, title, path)
	if ok {
		if _, err := exec.LookPath(name); err == nil {
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, out)
			}
			return nil
		}
		p.log.Debug("未找到打印命令，改用默认程序打开", "command", name)
	}
	return browser.OpenFile(path)
}

// submitCommand 返回提交打印任务的命令
func submitCommand(goos, title, path string) (string, []string, bool) {
	switch goos {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd":
		return "lp", []string{"-t", title, path}, true
	default:
		return "", nil, false
	}
}

// spoolPath PDF 文件路径：<dir>/<title>-<id>.pdf
func spoolPath(dir, title, id string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.pdf", title, id))
}
