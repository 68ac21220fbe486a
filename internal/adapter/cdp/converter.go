package cdp

import (
	"strings"

	"siteshell/pkg/domain"

	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/samber/lo"
)

// toNavigationRequest 将拦截事件转换为领域导航请求
func toNavigationRequest(ev *fetch.RequestPausedReply) domain.NavigationRequest {
	return domain.NavigationRequest{
		ID:  string(ev.RequestID),
		URL: ev.Request.URL,
	}
}

// toHistoryState 将导航历史转换为领域模型
func toHistoryState(reply *page.GetNavigationHistoryReply) domain.HistoryState {
	if reply == nil {
		return domain.HistoryState{}
	}
	entries := lo.Map(reply.Entries, func(e page.NavigationEntry, _ int) domain.HistoryEntry {
		return domain.HistoryEntry{ID: e.ID, URL: e.URL}
	})
	return domain.HistoryState{CurrentIndex: reply.CurrentIndex, Entries: entries}
}

// cookieHeader 将 Cookie 列表拼接为 name=value; name2=value2
func cookieHeader(cookies []network.Cookie) string {
	parts := lo.Map(cookies, func(c network.Cookie, _ int) string {
		return c.Name + "=" + c.Value
	})
	return strings.Join(parts, "; ")
}

// parseCookieFragment 拆分单条 name=value 片段；没有等号时整段作为值，名称为空
func parseCookieFragment(fragment string) (name, value string) {
	fragment = strings.TrimSpace(fragment)
	name, value, ok := strings.Cut(fragment, "=")
	if !ok {
		return "", fragment
	}
	return strings.TrimSpace(name), strings.TrimSpace(value)
}

// attribute 从 DOM 节点的扁平属性列表（name, value, ...）中读取属性值
func attribute(attrs []string, name string) (string, bool) {
	for i := 0; i+1 < len(attrs); i += 2 {
		if strings.EqualFold(attrs[i], name) {
			return attrs[i+1], true
		}
	}
	return "", false
}

// parseAccept 解析 input 的 accept 属性，如 "image/*, .pdf"
func parseAccept(accept string) []string {
	return lo.FilterMap(strings.Split(accept, ","), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}
