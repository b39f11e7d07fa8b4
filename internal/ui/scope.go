package ui

import "context"

// requestScope 把在途请求绑定到视图的生命周期：视图卸载时取消上下文，
// 迟到的响应因代数不匹配被丢弃，而不是写入已卸载的视图。
type requestScope struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	gen    int
}

func newRequestScope(parent context.Context) *requestScope {
	ctx, cancel := context.WithCancel(parent)
	return &requestScope{parent: parent, ctx: ctx, cancel: cancel, gen: 1}
}

// renew 取消在途请求并进入新的代数，用于视图内的整体重取。
func (s *requestScope) renew() {
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(s.parent)
	s.gen++
}

// stale 判断携带代数的响应是否已过期。
func (s *requestScope) stale(gen int) bool {
	return gen != s.gen
}
