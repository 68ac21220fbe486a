package upload

import (
	"sync"

	"siteshell/pkg/domain"

	"github.com/google/uuid"
)

// Request 一次待处理的文件选择请求，只能回填一次
type Request struct {
	ID       string
	Accept   []string
	Multiple bool

	once    sync.Once
	resolve func(paths []string) error
}

// NewRequest 根据页面的文件选择请求创建待处理请求
func NewRequest(fc *domain.FileChooser) *Request {
	r := &Request{ID: uuid.NewString()}
	if fc != nil {
		r.Accept = fc.Accept
		r.Multiple = fc.Multiple
		r.resolve = fc.Resolve
	}
	return r
}

// Resolve 回填所选文件，nil 表示未选择文件；只回填第一个文件。重复调用不生效，返回 false。
func (r *Request) Resolve(paths []string) (bool, error) {
	if len(paths) > 1 {
		paths = paths[:1]
	}
	fired := false
	var err error
	r.once.Do(func() {
		fired = true
		if r.resolve != nil {
			err = r.resolve(paths)
		}
	})
	return fired, err
}

// Slot 最多持有一个待处理请求。只在主序列上访问，不加锁。
type Slot struct {
	current *Request
}

// Pending 当前待处理请求
func (s *Slot) Pending() *Request { return s.current }

// Replace 先以“未选择文件”回填旧请求，再挂起新请求
func (s *Slot) Replace(r *Request) error {
	var err error
	if s.current != nil {
		_, err = s.current.Resolve(nil)
	}
	s.current = r
	return err
}

// Complete 以选择结果回填指定请求并清空槽位。
// id 与当前请求不一致时（已被替换）忽略，返回 false。
func (s *Slot) Complete(id string, paths []string) (bool, error) {
	if s.current == nil || s.current.ID != id {
		return false, nil
	}
	r := s.current
	s.current = nil
	_, err := r.Resolve(paths)
	return true, err
}

// Cancel 以“未选择文件”回填当前请求
func (s *Slot) Cancel() error {
	if s.current == nil {
		return nil
	}
	r := s.current
	s.current = nil
	_, err := r.Resolve(nil)
	return err
}
