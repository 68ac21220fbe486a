package cdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadTracker_ConsumeOnce(t *testing.T) {
	tr := newLoadTracker()
	tr.expect("https://tandavcreation.com/")

	assert.True(t, tr.consume("https://tandavcreation.com/", ""))
	assert.False(t, tr.consume("https://tandavcreation.com/", ""), "标记只能消费一次")
	assert.False(t, tr.consume("https://other.example/", ""))
}

func TestLoadTracker_CountsRepeatedExpectations(t *testing.T) {
	tr := newLoadTracker()
	tr.expect("https://tandavcreation.com/orders")
	tr.expect("https://tandavcreation.com/orders")

	assert.True(t, tr.consume("https://tandavcreation.com/orders", ""))
	assert.True(t, tr.consume("https://tandavcreation.com/orders", ""))
	assert.False(t, tr.consume("https://tandavcreation.com/orders", ""))
}

func TestLoadTracker_FollowsRedirectHops(t *testing.T) {
	tr := newLoadTracker()
	tr.expect("https://tandavcreation.com/")

	assert.True(t, tr.consume("https://tandavcreation.com/", "N1"))
	assert.True(t, tr.consume("https://tandavcreation.com/signin", "N1"), "同一加载的重定向跳转直接放行")
	assert.False(t, tr.consume("https://tandavcreation.com/signin", "N2"))

	tr.loadFinished()
	tr.loadFinished()
	assert.False(t, tr.consume("https://tandavcreation.com/signin", "N1"), "加载结束后不再跟随")
}

func TestLoadTracker_IgnoresFragment(t *testing.T) {
	tr := newLoadTracker()
	tr.expect("https://tandavcreation.com/orders#item-3")

	assert.True(t, tr.consume("https://tandavcreation.com/orders", ""))
	assert.Zero(t, tr.pending())
}

func TestLoadTracker_UnusedExpectationExpires(t *testing.T) {
	tr := newLoadTracker()
	tr.expect("https://tandavcreation.com/signin")

	// 前一个文档的加载完成不影响新标记
	tr.loadFinished()
	assert.Equal(t, 1, tr.pending())

	tr.loadFinished()
	assert.Zero(t, tr.pending())
	assert.False(t, tr.consume("https://tandavcreation.com/signin", ""), "过期标记不能再让页面发起的导航跳过分类")
}

func TestLoadTracker_Forget(t *testing.T) {
	tr := newLoadTracker()
	tr.expect("https://tandavcreation.com/")
	tr.forget("https://tandavcreation.com/")
	assert.False(t, tr.consume("https://tandavcreation.com/", ""))
}

func TestLoadTracker_MainFrame(t *testing.T) {
	tr := newLoadTracker()
	assert.True(t, tr.isMainFrame("anything"), "未知主框架时视为主框架")

	tr.setMainFrame("F1")
	assert.True(t, tr.isMainFrame("F1"))
	assert.False(t, tr.isMainFrame("F2"))
}
