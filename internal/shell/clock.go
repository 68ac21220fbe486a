package shell

import "time"

// Timer 可重置的定时器
type Timer interface {
	C() <-chan time.Time
	Reset(d time.Duration) bool
	Stop() bool
}

// Clock 创建定时器
type Clock interface {
	NewTimer(d time.Duration) Timer
}

// SystemClock 基于 time.Timer 的时钟
type SystemClock struct{}

// NewTimer 创建系统定时器
func (SystemClock) NewTimer(d time.Duration) Timer {
	return &systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s *systemTimer) C() <-chan time.Time        { return s.t.C }
func (s *systemTimer) Reset(d time.Duration) bool { return s.t.Reset(d) }
func (s *systemTimer) Stop() bool                 { return s.t.Stop() }
