package launch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreen_FiresOnceAfterDelay(t *testing.T) {
	s := NewScreen(1000 * time.Millisecond)

	var scheduled []time.Duration
	var pending []func()
	s.afterFunc = func(d time.Duration, f func()) *time.Timer {
		scheduled = append(scheduled, d)
		pending = append(pending, f)
		return nil
	}

	var fired atomic.Int32
	s.Schedule(func() { fired.Add(1) })
	s.Schedule(func() { fired.Add(100) })

	require.Len(t, pending, 1, "重复调度只生效一次")
	assert.Equal(t, []time.Duration{time.Second}, scheduled)
	assert.Zero(t, fired.Load(), "延时结束前不应执行")

	pending[0]()
	assert.Equal(t, int32(1), fired.Load())
}

func TestScreen_RealTimer(t *testing.T) {
	s := NewScreen(10 * time.Millisecond)
	done := make(chan struct{})
	start := time.Now()
	s.Schedule(func() { close(done) })

	select {
	case <-done:
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("启动画面未触发后续动作")
	}
}
