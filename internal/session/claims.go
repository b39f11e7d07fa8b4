package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry 在不校验签名的前提下读取令牌的 exp 声明，仅用于状态栏展示。
// 令牌有效性始终以后端的响应为准，过期令牌不会触发自动登出。
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
