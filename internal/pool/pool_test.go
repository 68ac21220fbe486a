package pool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"siteshell/internal/logger"
	"siteshell/internal/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPool_Basic 验证任务能正常执行
func TestPool_Basic(t *testing.T) {
	p := pool.New(2, 50, logger.NewNop())
	p.Start(context.Background())
	defer p.Stop()

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		ok := p.Submit("count", func(ctx context.Context) {
			atomic.AddInt32(&count, 1)
			wg.Done()
		})
		require.True(t, ok)
	}
	wg.Wait()
	assert.Equal(t, int32(20), atomic.LoadInt32(&count))
}

// TestPool_Serial 单个 worker 时任务按提交顺序依次执行
func TestPool_Serial(t *testing.T) {
	p := pool.New(1, 10, nil)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	var order []int
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		p.Submit("serial", func(ctx context.Context) {
			defer wg.Done()
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&active, -1)
		})
	}
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

// TestPool_DropWhenFull 队列满时丢弃新任务
func TestPool_DropWhenFull(t *testing.T) {
	p := pool.New(1, 1, nil)
	p.Start(context.Background())
	defer p.Stop()

	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Submit("blocker", func(ctx context.Context) {
		close(started)
		<-block
	}))
	<-started
	require.True(t, p.Submit("queued", func(ctx context.Context) {}))
	assert.False(t, p.Submit("dropped", func(ctx context.Context) {}))
	close(block)

	_, submitted, dropped, _ := p.Stats()
	assert.Equal(t, int64(3), submitted)
	assert.Equal(t, int64(1), dropped)
}

// TestPool_NotStarted 未启动时拒绝任务
func TestPool_NotStarted(t *testing.T) {
	p := pool.New(1, 1, nil)
	assert.False(t, p.Submit("early", func(ctx context.Context) {}))
}

// TestPool_PanicRecovered 任务异常不影响 worker
func TestPool_PanicRecovered(t *testing.T) {
	p := pool.New(1, 4, nil)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	p.Submit("panics", func(ctx context.Context) { panic("boom") })
	p.Submit("after", func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker 未继续执行后续任务")
	}
	_, _, _, failed := p.Stats()
	assert.Equal(t, int64(1), failed)
}

// TestPool_StopCancelsJobs Stop 取消正在执行任务的 ctx
func TestPool_StopCancelsJobs(t *testing.T) {
	p := pool.New(1, 1, nil)
	p.Start(context.Background())

	started := make(chan struct{})
	p.Submit("long", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started
	p.Stop()
	assert.False(t, p.Submit("late", func(ctx context.Context) {}))
}
