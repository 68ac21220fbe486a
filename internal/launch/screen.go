package launch

import (
	"sync"
	"time"
)

// Screen 启动画面：固定停留一段时间后执行一次后续动作，不可取消
type Screen struct {
	delay     time.Duration
	afterFunc func(d time.Duration, f func()) *time.Timer
	once      sync.Once
}

// NewScreen 创建启动画面，delay 为停留时长
func NewScreen(delay time.Duration) *Screen {
	return &Screen{delay: delay, afterFunc: time.AfterFunc}
}

// Delay 停留时长
func (s *Screen) Delay() time.Duration { return s.delay }

// Schedule 在延时结束后执行 next。重复调用只生效一次。
func (s *Screen) Schedule(next func()) {
	s.once.Do(func() {
		s.afterFunc(s.delay, next)
	})
}
