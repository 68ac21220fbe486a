package cli

import (
	"fmt"
	"io/fs"

	"siteshell/internal/config"
	"siteshell/internal/gui"
	"siteshell/internal/logger"
	"siteshell/pkg/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd 创建根命令。无子命令时运行桌面应用。
func NewRootCmd(assets fs.FS, info domain.VersionInfo) *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:           "siteshell",
		Short:         "Desktop shell for a single web site",
		Long:          `Opens the site in a dedicated browser window, keeps its cookies across restarts and exposes print and logout to the page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(v)
			log := logger.New(logger.Options{
				Level:   cfg.Log.Level,
				Writers: cfg.Log.Writer,
			})
			return gui.Run(gui.NewApp(cfg, log, info), assets)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("browser-path", "", "Chrome or Chromium executable")
	flags.Bool("headless", false, "Run the browser without a window")
	flags.String("db", "", "Database file path")
	bindFlags(v, cmd, map[string]string{
		config.KeyLogLevel:    "log-level",
		config.KeyBrowserPath: "browser-path",
		config.KeyHeadless:    "headless",
		config.KeyDBPath:      "db",
	})

	cmd.AddCommand(newCookiesCmd(v))
	cmd.AddCommand(newHistoryCmd(v))
	cmd.AddCommand(newVersionCmd(info))
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(name))
	}
}

// Execute 解析命令行并执行
func Execute(assets fs.FS, info domain.VersionInfo) error {
	if err := NewRootCmd(assets, info).Execute(); err != nil {
		return fmt.Errorf("siteshell: %w", err)
	}
	return nil
}
