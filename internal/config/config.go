package config

import "time"

// Config 配置文件结构体
type Config struct {
	Version string `yaml:"version"`
	Site    struct {
		Root      string `yaml:"root"`      // 站点根地址，以此为前缀的地址视为站内
		SignInURL string `yaml:"signInURL"` // 登录页地址，进入此地址前清空 Cookie
	} `yaml:"site"`
	Shell struct {
		RefreshInterval time.Duration `yaml:"refreshInterval"` // 自动刷新间隔
		LaunchDelay     time.Duration `yaml:"launchDelay"`     // 启动页停留时间
		BridgeNamespace string        `yaml:"bridgeNamespace"` // 页面脚本中可见的桥接对象名
		PrintTitle      string        `yaml:"printTitle"`      // 打印任务标题
	} `yaml:"shell"`
	Cookies struct {
		Prefs string `yaml:"prefs"`
		Key   string `yaml:"key"`
	} `yaml:"cookies"`
	Sqlite struct {
		Db     string `yaml:"db"`
		Prefix string `yaml:"prefix"`
		Path   string `yaml:"path"` // 数据库完整路径，为空时使用默认数据目录
	} `yaml:"sqlite"`
	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
	} `yaml:"log"`
	Browser struct {
		Path     string   `yaml:"path"`
		Args     []string `yaml:"args"`
		Headless bool     `yaml:"headless"`
	} `yaml:"browser"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{Version: "1.0.0"}

	cfg.Site.Root = "https://tandavcreation.com/"
	cfg.Site.SignInURL = "https://tandavcreation.com/signin"

	cfg.Shell.RefreshInterval = 120 * time.Second
	cfg.Shell.LaunchDelay = 1000 * time.Millisecond
	cfg.Shell.BridgeNamespace = "Android"
	cfg.Shell.PrintTitle = "Invoice Print"

	cfg.Cookies.Prefs = "CookiesPrefs"
	cfg.Cookies.Key = "CookiesKey"

	cfg.Sqlite.Db = "data.db"
	cfg.Sqlite.Prefix = "siteshell_"

	cfg.Log.Level = "info"
	// file需要在console之前，打包后没有控制台时不影响文件日志
	cfg.Log.Writer = []string{"file", "console"}

	return cfg
}
