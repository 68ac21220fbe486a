package navigation

import "strings"

// Decision 导航分类结果
type Decision int

const (
	// Internal 站内导航，在嵌入页面中继续
	Internal Decision = iota
	// SignIn 登录页，放行前需要清空 Cookie
	SignIn
	// External 站外导航，交给系统默认处理程序
	External
)

func (d Decision) String() string {
	switch d {
	case Internal:
		return "internal"
	case SignIn:
		return "signin"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// Policy 按站点根地址前缀区分站内与站外导航
type Policy struct {
	root   string
	signIn string
}

// NewPolicy 创建导航策略
func NewPolicy(root, signIn string) Policy {
	return Policy{root: root, signIn: signIn}
}

// Root 站点根地址
func (p Policy) Root() string { return p.root }

// SignInURL 登录页地址
func (p Policy) SignInURL() string { return p.signIn }

// Classify 对页面发起的导航地址分类。
// 前缀匹配是纯字符串比较，与地址规范化无关。
func (p Policy) Classify(url string) Decision {
	if !strings.HasPrefix(url, p.root) {
		return External
	}
	if url == p.signIn {
		return SignIn
	}
	return Internal
}
