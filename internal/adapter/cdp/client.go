package cdp

import (
	"context"
	"fmt"

	"siteshell/internal/logger"
	"siteshell/pkg/domain"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/rpcc"
)

// TargetSession 代表一个已附着的页面目标会话
type TargetSession struct {
	ID     string
	URL    string
	Client *cdp.Client
	Conn   *rpcc.Conn
	Ctx    context.Context    // 会话级上下文
	Cancel context.CancelFunc // 取消函数
}

// Close 先取消 context，再关闭连接
func (s *TargetSession) Close() error {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Conn != nil {
		return s.Conn.Close()
	}
	return nil
}

// AttachPage 附着到浏览器中的第一个页面目标
func AttachPage(ctx context.Context, devtoolsURL string, l logger.Logger) (*TargetSession, error) {
	if l == nil {
		l = logger.NewNop()
	}

	dt := devtool.New(devtoolsURL)
	targets, err := dt.List(ctx)
	if err != nil {
		l.Err(err, "获取 Target 列表失败")
		return nil, fmt.Errorf("%w: %v", domain.ErrDevToolsUnreachable, err)
	}

	var target *devtool.Target
	for _, t := range targets {
		if t != nil && t.Type == devtool.Page {
			target = t
			break
		}
	}
	if target == nil {
		l.Warn("没有可用的页面 Target")
		return nil, domain.ErrNoPageTarget
	}

	return dial(ctx, target.ID, target.URL, target.WebSocketDebuggerURL, l)
}

// dial 建立到目标的 CDP 连接
func dial(ctx context.Context, id, url, wsURL string, l logger.Logger) (*TargetSession, error) {
	sessionCtx, sessionCancel := context.WithCancel(ctx)

	conn, err := rpcc.DialContext(sessionCtx, wsURL,
		rpcc.WithWriteBufferSize(16*1024*1024),
		rpcc.WithCompression())
	if err != nil {
		sessionCancel()
		l.Err(err, "CDP 连接建立失败", "targetID", id, "wsURL", wsURL)
		return nil, err
	}

	l.Info("Target 附着成功", "targetID", id, "url", url)
	return &TargetSession{
		ID:     id,
		URL:    url,
		Client: cdp.NewClient(conn),
		Conn:   conn,
		Ctx:    sessionCtx,
		Cancel: sessionCancel,
	}, nil
}

// AttachTarget 按 ID 附着到指定目标
func AttachTarget(ctx context.Context, devtoolsURL, id string, l logger.Logger) (*TargetSession, error) {
	if l == nil {
		l = logger.NewNop()
	}

	targets, err := devtool.New(devtoolsURL).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDevToolsUnreachable, err)
	}
	for _, t := range targets {
		if t != nil && t.ID == id {
			return dial(ctx, t.ID, t.URL, t.WebSocketDebuggerURL, l)
		}
	}
	l.Warn("Target 未找到", "targetID", id)
	return nil, fmt.Errorf("cdp: target not found: %s", id)
}
