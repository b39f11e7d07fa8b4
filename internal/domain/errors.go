package domain

import "errors"

var (
	// ErrNotFound 表示本地存储中不存在对应条目。
	ErrNotFound = errors.New("domain: not found")
)
