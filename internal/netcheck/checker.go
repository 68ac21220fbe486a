package netcheck

import (
	"context"
	"net/http"
	"time"

	"siteshell/internal/logger"

	"github.com/hashicorp/go-retryablehttp"
)

// Options 连通性检查配置
type Options struct {
	URL      string
	Timeout  time.Duration
	RetryMax int
}

// Checker 通过 HEAD 请求站点根地址判断网络是否可用
type Checker struct {
	url    string
	client *retryablehttp.Client
	log    logger.Logger
}

// New 创建连通性检查器
func New(opts Options, l logger.Logger) *Checker {
	if l == nil {
		l = logger.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}

	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = time.Second
	c.HTTPClient.Timeout = opts.Timeout
	c.Logger = nil
	// 任何 HTTP 响应都视为可达，包括 5xx
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Checker{url: opts.URL, client: c, log: l}
}

// Reachable 站点是否可达
func (c *Checker) Reachable(ctx context.Context) bool {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		c.log.Err(err, "构造连通性请求失败", "url", c.url)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("站点不可达", "url", c.url, "error", err.Error())
		return false
	}
	_ = resp.Body.Close()
	c.log.Debug("站点可达", "url", c.url, "status", resp.StatusCode)
	return true
}
