package model

import (
	"time"
)

// Preference 偏好键值表，按偏好文件名 + 键定位一条记录
type Preference struct {
	Prefs     string    `gorm:"primaryKey;size:64" json:"prefs"` // 偏好文件名
	Key       string    `gorm:"primaryKey;size:64" json:"key"`   // 键
	Value     string    `gorm:"type:text" json:"value"`          // 值
	UpdatedAt time.Time `json:"updatedAt"`                       // 更新时间
}

// NavigationEventRecord 导航与桥接事件记录表
type NavigationEventRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Kind       string    `gorm:"index;size:32" json:"kind"` // internal / signin / external / bridge
	URL        string    `json:"url"`
	DetailJSON string    `gorm:"type:text" json:"detailJson"`
	Timestamp  int64     `gorm:"index" json:"timestamp"`
	CreatedAt  time.Time `json:"createdAt"`
}

// All 返回需要迁移的全部模型
func All() []any {
	return []any{&Preference{}, &NavigationEventRecord{}}
}
