package config

import (
	"strings"

	"github.com/spf13/viper"
)

// 可由命令行或环境变量覆盖的设置键
const (
	KeyLogLevel    = "log.level"
	KeyLogWriter   = "log.writer"
	KeyBrowserPath = "browser.path"
	KeyBrowserArgs = "browser.args"
	KeyHeadless    = "browser.headless"
	KeyDBPath      = "sqlite.path"
)

// EnvPrefix 环境变量前缀，例如 SITESHELL_LOG_LEVEL
const EnvPrefix = "SITESHELL"

// NewViper 创建绑定了环境变量的 viper 实例，默认值取自 NewConfig
func NewViper() *viper.Viper {
	def := NewConfig()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, def.Log.Level)
	v.SetDefault(KeyLogWriter, def.Log.Writer)
	v.SetDefault(KeyBrowserPath, def.Browser.Path)
	v.SetDefault(KeyBrowserArgs, def.Browser.Args)
	v.SetDefault(KeyHeadless, def.Browser.Headless)
	v.SetDefault(KeyDBPath, def.Sqlite.Path)
	return v
}

// Load 在默认配置上应用可覆盖的环境设置。站点地址等常量不参与覆盖。
func Load(v *viper.Viper) *Config {
	cfg := NewConfig()
	if v == nil {
		return cfg
	}

	if lvl := strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))); lvl != "" {
		cfg.Log.Level = lvl
	}
	if writers := v.GetStringSlice(KeyLogWriter); len(writers) > 0 {
		cfg.Log.Writer = writers
	}
	cfg.Browser.Path = v.GetString(KeyBrowserPath)
	cfg.Browser.Args = v.GetStringSlice(KeyBrowserArgs)
	cfg.Browser.Headless = v.GetBool(KeyHeadless)
	cfg.Sqlite.Path = v.GetString(KeyDBPath)
	return cfg
}
