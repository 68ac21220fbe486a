package cookiejar

import (
	"context"
	"fmt"
	"strings"

	"siteshell/internal/logger"

	"github.com/samber/lo"
)

// Store 嵌入页面的 Cookie 存储
type Store interface {
	// Cookie 返回站点的 Cookie 头字符串（name=value; ...），无 Cookie 时 ok 为 false
	Cookie(ctx context.Context, url string) (string, bool, error)
	// SetCookie 以单条 name=value 片段设置 Cookie
	SetCookie(ctx context.Context, url, fragment string) error
	// RemoveAll 清空浏览器全部 Cookie
	RemoveAll(ctx context.Context) error
	Flush(ctx context.Context) error
}

// Preferences 持久化键值存储
type Preferences interface {
	GetString(ctx context.Context, prefs, key string) (string, bool, error)
	PutString(ctx context.Context, prefs, key, value string) error
	Remove(ctx context.Context, prefs, key string) error
}

// Options Cookie Jar 配置
type Options struct {
	Root  string // 站点根地址
	Prefs string // 偏好文件名
	Key   string // 键名
}

// Jar 在应用重启之间保存站点会话 Cookie
type Jar struct {
	store Store
	prefs Preferences
	opts  Options
	log   logger.Logger
}

// New 创建 Cookie Jar
func New(store Store, prefs Preferences, opts Options, l logger.Logger) *Jar {
	if l == nil {
		l = logger.NewNop()
	}
	return &Jar{store: store, prefs: prefs, opts: opts, log: l}
}

// Save 读取站点当前 Cookie 并原样持久化，无 Cookie 时不写入
func (j *Jar) Save(ctx context.Context) error {
	header, ok, err := j.store.Cookie(ctx, j.opts.Root)
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	if !ok || header == "" {
		j.log.Debug("站点暂无 Cookie，跳过保存")
		return nil
	}
	if err := j.prefs.PutString(ctx, j.opts.Prefs, j.opts.Key, header); err != nil {
		return fmt.Errorf("persist cookies: %w", err)
	}
	return nil
}

// Restore 把持久化的 Cookie 逐条写回页面存储，然后刷新
func (j *Jar) Restore(ctx context.Context) error {
	stored, ok, err := j.prefs.GetString(ctx, j.opts.Prefs, j.opts.Key)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if !ok {
		j.log.Debug("没有已保存的 Cookie")
		return nil
	}

	fragments := Split(stored)
	for _, f := range fragments {
		if err := j.store.SetCookie(ctx, j.opts.Root, f); err != nil {
			return fmt.Errorf("set cookie: %w", err)
		}
	}
	j.log.Info("已恢复 Cookie", "count", len(fragments))
	return j.store.Flush(ctx)
}

// Clear 异步清空全部浏览器 Cookie，完成后回调 onDone。
// 持久化条目不在这里删除，由调用方在自己的协程中调用 Forget。刷新单独进行，不等待。
func (j *Jar) Clear(ctx context.Context, onDone func(error)) {
	go func() {
		err := j.store.RemoveAll(ctx)
		if err != nil {
			j.log.Err(err, "清空浏览器 Cookie 失败")
		}
		if onDone != nil {
			onDone(err)
		}
	}()
	go func() {
		if err := j.store.Flush(ctx); err != nil {
			j.log.Debug("刷新 Cookie 存储失败", "error", err.Error())
		}
	}()
}

// Forget 删除持久化的 Cookie 条目
func (j *Jar) Forget(ctx context.Context) error {
	if err := j.prefs.Remove(ctx, j.opts.Prefs, j.opts.Key); err != nil {
		return fmt.Errorf("remove persisted cookies: %w", err)
	}
	return nil
}

// Split 按分号拆分 Cookie 字符串，去除空白与空片段
func Split(header string) []string {
	return lo.FilterMap(strings.Split(header, ";"), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}
