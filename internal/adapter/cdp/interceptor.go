package cdp

import (
	"context"
	"time"

	"siteshell/internal/logger"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"
)

// Interceptor 文档请求拦截适配器
type Interceptor struct {
	log logger.Logger
}

// NewInterceptor 创建拦截适配器
func NewInterceptor(l logger.Logger) *Interceptor {
	if l == nil {
		l = logger.NewNop()
	}
	return &Interceptor{log: l}
}

// Enable 只拦截文档类型请求的请求阶段
func (i *Interceptor) Enable(ctx context.Context, client *cdp.Client) error {
	p := "*"
	doc := network.ResourceTypeDocument
	patterns := []fetch.RequestPattern{
		{URLPattern: &p, ResourceType: &doc, RequestStage: fetch.RequestStageRequest},
	}
	return client.Fetch.Enable(ctx, &fetch.EnableArgs{Patterns: patterns})
}

// ContinueRequest 放行请求
func (i *Interceptor) ContinueRequest(ctx context.Context, client *cdp.Client, id fetch.RequestID) error {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := client.Fetch.ContinueRequest(ctx2, &fetch.ContinueRequestArgs{RequestID: id})
	if err != nil {
		i.log.Err(err, "放行请求失败", "requestID", id)
	}
	return err
}

// AbortRequest 以 Aborted 中止请求，页面内容保持不变
func (i *Interceptor) AbortRequest(ctx context.Context, client *cdp.Client, id fetch.RequestID) error {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := client.Fetch.FailRequest(ctx2, &fetch.FailRequestArgs{
		RequestID:   id,
		ErrorReason: network.ErrorReasonAborted,
	})
	if err != nil {
		i.log.Err(err, "中止请求失败", "requestID", id)
	}
	return err
}

// Subscribe 订阅请求暂停事件流。需在发起任何导航之前调用，否则事件会丢失。
func (i *Interceptor) Subscribe(ctx context.Context, client *cdp.Client) (fetch.RequestPausedClient, error) {
	rp, err := client.Fetch.RequestPaused(ctx)
	if err != nil {
		i.log.Err(err, "订阅拦截事件流失败")
		return nil, err
	}
	return rp, nil
}

// Consume 开启事件消费循环，直到流关闭。handler 在本协程内同步调用。
func (i *Interceptor) Consume(ctx context.Context, client *cdp.Client, rp fetch.RequestPausedClient, handler func(ev *fetch.RequestPausedReply)) error {
	defer rp.Close()

	for {
		ev, err := rp.Recv()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		i.log.Debug("[Interceptor] 接收文档请求", "requestID", ev.RequestID, "frameID", ev.FrameID, "url", ev.Request.URL)

		func() {
			defer func() {
				if r := recover(); r != nil {
					i.log.Err(nil, "handler panic 捕获", "requestID", ev.RequestID, "panic", r)
					_ = i.ContinueRequest(ctx, client, ev.RequestID)
				}
			}()
			handler(ev)
		}()
	}
}
