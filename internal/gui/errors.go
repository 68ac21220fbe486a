package gui

import (
	"errors"
	"strings"

	"siteshell/pkg/domain"
	"siteshell/pkg/errx"
)

// 错误码常量
const (
	CodeNetworkUnavailable  = string(errx.CodeNetworkUnavailable)
	CodeDevToolsUnreachable = "DEVTOOLS_UNREACHABLE"
	CodeNetworkError        = "NETWORK_ERROR"
	CodeBrowserNotRunning   = "BROWSER_NOT_RUNNING"
	CodeBrowserStartFailed  = string(errx.CodeBrowserStartFailed)
	CodeSurfaceClosed       = string(errx.CodeSurfaceClosed)
	CodeNoPageTarget        = "NO_PAGE_TARGET"
	CodeDatabaseError       = string(errx.CodeDatabaseError)
	CodeUnknown             = "UNKNOWN_ERROR"
)

// 错误映射表
var errorMappings = map[error]string{
	domain.ErrNetworkUnavailable:     CodeNetworkUnavailable,
	domain.ErrDevToolsUnreachable:    CodeDevToolsUnreachable,
	domain.ErrBrowserNotRunning:      CodeBrowserNotRunning,
	domain.ErrBrowserStartFailed:     CodeBrowserStartFailed,
	domain.ErrSurfaceClosed:          CodeSurfaceClosed,
	domain.ErrNoPageTarget:           CodeNoPageTarget,
	domain.ErrDatabaseNotInitialized: CodeDatabaseError,
}

// translateError 将领域错误转换为错误码
func (a *App) translateError(err error) (code, message string) {
	if err == nil {
		return "", ""
	}

	for domainErr, errorCode := range errorMappings {
		if errors.Is(err, domainErr) {
			a.log.Err(err, "业务错误", "code", errorCode)
			return errorCode, ""
		}
	}

	var coded *errx.Error
	if errors.As(err, &coded) {
		a.log.Err(err, "业务错误", "code", string(coded.Code))
		return string(coded.Code), coded.Msg
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "websocket: bad handshake") {
		a.log.Err(err, "网络连接错误")
		return CodeNetworkError, ""
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		a.log.Err(err, "网络超时")
		return CodeNetworkError, ""
	}

	a.log.Err(err, "未知错误")
	return CodeUnknown, err.Error()
}
