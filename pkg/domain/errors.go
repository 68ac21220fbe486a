package domain

import "errors"

// 连接相关错误
var (
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrDevToolsUnreachable = errors.New("devtools unreachable")
)

// 浏览器相关错误
var (
	ErrBrowserNotRunning  = errors.New("browser not running")
	ErrBrowserStartFailed = errors.New("browser start failed")
	ErrSurfaceClosed      = errors.New("surface closed")
	ErrNoPageTarget       = errors.New("no page target")
)

// 桥接相关错误
var (
	ErrUnknownCommand = errors.New("unknown bridge command")
	ErrBadPayload     = errors.New("malformed bridge payload")
)

// 数据库相关错误
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
)
