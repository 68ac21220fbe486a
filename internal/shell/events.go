package shell

// 异步任务完成后投递回主序列的事件

// clearDone Cookie 清空完成，next 非空时随后加载该地址
type clearDone struct {
	next string
	err  error
}

// loadDone 程序发起的加载（打开、刷新、后退）已提交或失败
type loadDone struct {
	action string
	err    error
}

// refreshRequested 防抖后的下拉刷新
type refreshRequested struct{}

// pickDone 文件选择对话框返回
type pickDone struct {
	id    string
	paths []string
	err   error
}

// tickDone 定时刷新的连通性检查完成
type tickDone struct {
	reachable bool
}
