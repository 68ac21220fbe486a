package repo

import (
	"context"
	"time"

	"siteshell/internal/storage/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepo 偏好键值仓库，按偏好文件名分组存储字符串
type PreferenceRepo struct {
	BaseRepository[model.Preference]
}

// NewPreferenceRepo 创建偏好仓库实例
func NewPreferenceRepo(db *gorm.DB) *PreferenceRepo {
	return &PreferenceRepo{
		BaseRepository: *NewBaseRepository[model.Preference](db),
	}
}

func byPrefKey(prefs, key string) Filter {
	return FilterFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("prefs = ? AND key = ?", prefs, key)
	})
}

// GetString 读取字符串值，不存在时 ok 为 false
func (r *PreferenceRepo) GetString(ctx context.Context, prefs, key string) (string, bool, error) {
	p, err := r.FindOne(ctx, byPrefKey(prefs, key))
	if err != nil {
		return "", false, err
	}
	if p == nil {
		return "", false, nil
	}
	return p.Value, true, nil
}

// PutString 写入字符串值（存在则覆盖）
func (r *PreferenceRepo) PutString(ctx context.Context, prefs, key, value string) error {
	p := model.Preference{
		Prefs:     prefs,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return r.Db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prefs"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
}

// Remove 删除指定键
func (r *PreferenceRepo) Remove(ctx context.Context, prefs, key string) error {
	_, err := r.Delete(ctx, byPrefKey(prefs, key))
	return err
}

// GetAll 获取某个偏好文件下的全部键值
func (r *PreferenceRepo) GetAll(ctx context.Context, prefs string) (map[string]string, error) {
	list, err := r.FindAll(ctx, FilterFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("prefs = ?", prefs)
	}), nil, nil)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(list))
	for _, p := range list {
		result[p.Key] = p.Value
	}
	return result, nil
}
