package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"siteshell/internal/logger"
)

// Pool 后台任务队列。固定数量的 worker 依次取任务执行，队列满时丢弃新任务。
type Pool struct {
	size      int
	queue     chan namedJob
	log       logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once

	submitted atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

type namedJob struct {
	name string
	run  func(ctx context.Context) // ctx 在工作池停止时取消
}

// New 创建工作池。size 为 worker 数；queueCap 为等待队列容量，为 0 时取 size * 4。
func New(size, queueCap int, l logger.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueCap <= 0 {
		queueCap = size * 4
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &Pool{
		size:  size,
		queue: make(chan namedJob, queueCap),
		log:   l,
	}
}

// Start 启动 worker，ctx 取消或调用 Stop 后 worker 退出
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.ctx, p.cancel = context.WithCancel(ctx)
		for i := 0; i < p.size; i++ {
			p.wg.Add(1)
			go p.worker()
		}
		p.started.Store(true)
	})
}

// Stop 取消正在执行的任务并等待 worker 退出，未执行的任务被丢弃
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j := <-p.queue:
			p.run(j)
		}
	}
}

func (p *Pool) run(j namedJob) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.log.Error("后台任务异常", "job", j.name, "panic", fmt.Sprint(r))
		}
	}()
	j.run(p.ctx)
}

// Submit 提交任务，队列已满或工作池未启动时返回 false
func (p *Pool) Submit(name string, fn func(ctx context.Context)) bool {
	p.submitted.Add(1)
	if !p.started.Load() || p.ctx.Err() != nil {
		p.dropped.Add(1)
		p.log.Warn("工作池未运行，任务被丢弃", "job", name)
		return false
	}
	select {
	case p.queue <- namedJob{name: name, run: fn}:
		return true
	default:
		drop := p.dropped.Add(1)
		p.log.Warn("工作池队列已满，任务被丢弃", "job", name, "queueCap", cap(p.queue), "totalDrop", drop)
		return false
	}
}

// Stats 返回队列长度与累计统计
func (p *Pool) Stats() (queueLen, submitted, dropped, failed int64) {
	return int64(len(p.queue)), p.submitted.Load(), p.dropped.Load(), p.failed.Load()
}
