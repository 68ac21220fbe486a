package repo

import (
	"context"
	"sync"
	"time"

	"siteshell/internal/logger"
	"siteshell/internal/storage/model"

	"gorm.io/gorm"
)

// EventRepoOptions 事件仓库配置
type EventRepoOptions struct {
	BatchSize     int           // 达到该条数立即刷新
	FlushInterval time.Duration // 定时刷新间隔
	MaxBufferSize int           // 缓冲上限，超出时丢弃最旧记录
}

func (o *EventRepoOptions) withDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 5 * time.Second
	}
	if o.MaxBufferSize <= 0 {
		o.MaxBufferSize = 1000
	}
}

// EventRepo 导航事件仓库（异步批量写入）
type EventRepo struct {
	BaseRepository[model.NavigationEventRecord]
	log      logger.Logger
	opts     EventRepoOptions
	buffer   []model.NavigationEventRecord
	bufferMu sync.Mutex
	flushCh  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEventRepo 创建事件仓库实例
func NewEventRepo(db *gorm.DB, l logger.Logger, opts EventRepoOptions) *EventRepo {
	if l == nil {
		l = logger.NewNop()
	}
	opts.withDefaults()
	r := &EventRepo{
		BaseRepository: *NewBaseRepository[model.NavigationEventRecord](db),
		log:            l,
		opts:           opts,
		buffer:         make([]model.NavigationEventRecord, 0, opts.BatchSize),
		flushCh:        make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
	}
	r.wg.Add(1)
	go r.asyncWriter()
	return r
}

// asyncWriter 异步批量写入协程
func (r *EventRepo) asyncWriter() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.flush()
			return
		case <-ticker.C:
			r.flush()
		case <-r.flushCh:
			r.flush()
		}
	}
}

// flush 刷新缓冲区到数据库
func (r *EventRepo) flush() {
	r.bufferMu.Lock()
	if len(r.buffer) == 0 {
		r.bufferMu.Unlock()
		return
	}
	toWrite := r.buffer
	r.buffer = make([]model.NavigationEventRecord, 0, r.opts.BatchSize)
	r.bufferMu.Unlock()

	if err := r.Db.CreateInBatches(toWrite, 100).Error; err != nil {
		r.log.Err(err, "写入导航事件失败", "count", len(toWrite))
	}
}

// Stop 停止异步写入，剩余缓冲会被写入
func (r *EventRepo) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
}

// Record 记录一条事件（异步写入数据库）
func (r *EventRepo) Record(kind, url, detailJSON string) {
	now := time.Now()
	record := model.NavigationEventRecord{
		Kind:       kind,
		URL:        url,
		DetailJSON: detailJSON,
		Timestamp:  now.UnixMilli(),
		CreatedAt:  now,
	}

	r.bufferMu.Lock()
	if len(r.buffer) >= r.opts.MaxBufferSize {
		r.buffer = r.buffer[1:]
		r.log.Warn("事件缓冲已满，丢弃最旧记录")
	}
	r.buffer = append(r.buffer, record)
	needFlush := len(r.buffer) >= r.opts.BatchSize
	r.bufferMu.Unlock()

	if needFlush {
		select {
		case r.flushCh <- struct{}{}:
		default:
		}
	}
}

// QueryOptions 查询选项
type QueryOptions struct {
	Kind      string
	URL       string
	StartTime int64
	EndTime   int64
	Offset    int
	Limit     int
}

// Query 查询事件历史，按时间倒序
func (r *EventRepo) Query(ctx context.Context, opts QueryOptions) ([]model.NavigationEventRecord, int64, error) {
	query := r.Db.WithContext(ctx).Model(&model.NavigationEventRecord{})

	if opts.Kind != "" {
		query = query.Where("kind = ?", opts.Kind)
	}
	if opts.URL != "" {
		query = query.Where("url LIKE ?", "%"+opts.URL+"%")
	}
	if opts.StartTime > 0 {
		query = query.Where("timestamp >= ?", opts.StartTime)
	}
	if opts.EndTime > 0 {
		query = query.Where("timestamp <= ?", opts.EndTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}

	var records []model.NavigationEventRecord
	err := query.Order("timestamp DESC").Order("id DESC").
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&records).Error

	return records, total, err
}

// DeleteOldEvents 删除指定时间戳之前的事件
func (r *EventRepo) DeleteOldEvents(ctx context.Context, beforeTimestamp int64) (int64, error) {
	return r.Delete(ctx, FilterFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("timestamp < ?", beforeTimestamp)
	}))
}

// CleanupOldEvents 根据保留天数清理旧事件
func (r *EventRepo) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()
	return r.DeleteOldEvents(ctx, cutoff)
}

// ClearAll 清空所有事件
func (r *EventRepo) ClearAll(ctx context.Context) error {
	_, err := r.Delete(ctx, nil)
	return err
}
