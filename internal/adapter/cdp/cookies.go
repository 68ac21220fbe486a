package cdp

import (
	"context"
	"fmt"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/protocol/network"
)

// CookieStore 通过 Network 域读写页面 Cookie
type CookieStore struct {
	client *cdp.Client
}

// Cookie 返回站点地址对应的 Cookie 头字符串
func (c *CookieStore) Cookie(ctx context.Context, url string) (string, bool, error) {
	reply, err := c.client.Network.GetCookies(ctx, &network.GetCookiesArgs{URLs: []string{url}})
	if err != nil {
		return "", false, fmt.Errorf("get cookies: %w", err)
	}
	if len(reply.Cookies) == 0 {
		return "", false, nil
	}
	return cookieHeader(reply.Cookies), true, nil
}

// SetCookie 以 name=value 片段为站点地址设置 Cookie
func (c *CookieStore) SetCookie(ctx context.Context, url, fragment string) error {
	name, value := parseCookieFragment(fragment)
	_, err := c.client.Network.SetCookie(ctx, &network.SetCookieArgs{
		Name:  name,
		Value: value,
		URL:   &url,
	})
	if err != nil {
		return fmt.Errorf("set cookie %q: %w", name, err)
	}
	return nil
}

// RemoveAll 清空浏览器全部 Cookie（不限于当前站点）
func (c *CookieStore) RemoveAll(ctx context.Context) error {
	return c.client.Network.ClearBrowserCookies(ctx)
}

// Flush Chrome 自行持久化 Cookie 存储，无需显式刷新
func (c *CookieStore) Flush(ctx context.Context) error {
	return nil
}
