package cli

import (
	"fmt"

	"siteshell/internal/config"
	"siteshell/internal/storage/db"
	"siteshell/internal/storage/model"

	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// openStore 打开应用数据库，命令结束后由调用方关闭
func openStore(v *viper.Viper) (*config.Config, *gorm.DB, error) {
	cfg := config.Load(v)
	gdb, err := db.New(db.Options{
		Name:     cfg.Sqlite.Db,
		FullPath: cfg.Sqlite.Path,
		Prefix:   cfg.Sqlite.Prefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(gdb, model.All()...); err != nil {
		_ = db.Close(gdb)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, gdb, nil
}
