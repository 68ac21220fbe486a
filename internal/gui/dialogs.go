package gui

import (
	"context"
	"strings"

	"siteshell/internal/logger"
	"siteshell/internal/shell"

	pkgbrowser "github.com/pkg/browser"
	"github.com/samber/lo"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// dialogs 基于 wails 原生对话框实现提示与文件选择
type dialogs struct {
	ctx context.Context // wails 应用上下文
	log logger.Logger
}

// Notify 显示阻塞提示框，用户点击按钮后返回
func (d dialogs) Notify(ctx context.Context, n shell.Notice) error {
	_, err := runtime.MessageDialog(d.ctx, runtime.MessageDialogOptions{
		Type:          runtime.InfoDialog,
		Title:         n.Title,
		Message:       n.Message,
		Buttons:       []string{n.Button},
		DefaultButton: n.Button,
	})
	return err
}

// Pick 显示单选的打开文件对话框，取消时返回空切片
func (d dialogs) Pick(ctx context.Context, req shell.PickRequest) ([]string, error) {
	path, err := runtime.OpenFileDialog(d.ctx, runtime.OpenDialogOptions{
		Title:   "Select File",
		Filters: buildFilters(req.Accept),
	})
	if err != nil || path == "" {
		return nil, err
	}
	return []string{path}, nil
}

// mimePatterns 常见 MIME 类型对应的文件扩展名
var mimePatterns = map[string][]string{
	"image/*":         {"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.bmp", "*.heic"},
	"image/png":       {"*.png"},
	"image/jpeg":      {"*.jpg", "*.jpeg"},
	"image/gif":       {"*.gif"},
	"image/webp":      {"*.webp"},
	"video/*":         {"*.mp4", "*.mov", "*.webm", "*.mkv", "*.avi"},
	"audio/*":         {"*.mp3", "*.wav", "*.ogg", "*.m4a"},
	"application/pdf": {"*.pdf"},
	"text/plain":      {"*.txt"},
	"text/csv":        {"*.csv"},
}

// buildFilters 把 input 的 accept 列表转换为对话框过滤器；无法识别时不限制
func buildFilters(accept []string) []runtime.FileFilter {
	var patterns []string
	for _, a := range accept {
		a = strings.ToLower(strings.TrimSpace(a))
		switch {
		case a == "" || a == "*/*":
			return nil
		case strings.HasPrefix(a, "."):
			patterns = append(patterns, "*"+a)
		default:
			p, ok := mimePatterns[a]
			if !ok {
				return nil
			}
			patterns = append(patterns, p...)
		}
	}
	if len(patterns) == 0 {
		return nil
	}
	patterns = lo.Uniq(patterns)
	return []runtime.FileFilter{
		{DisplayName: "Accepted Files (" + strings.Join(patterns, ", ") + ")", Pattern: strings.Join(patterns, ";")},
		{DisplayName: "All Files (*.*)", Pattern: "*.*"},
	}
}

// osOpener 交给系统默认程序打开地址
type osOpener struct{}

func (osOpener) Open(url string) error {
	return pkgbrowser.OpenURL(url)
}
