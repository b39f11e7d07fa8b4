package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error 表示后端返回的非 2xx 响应，Detail 为后端的可读错误信息。
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsUnauthorized 判断错误是否为 401 鉴权失败。
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
