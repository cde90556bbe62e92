package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/platform/session"
)

// Limiter は(キー)単位でリクエスト可否を判定します。
// Goの慣例に従い、インターフェースはコンシューマー（middleware）が定義します。
type Limiter interface {
	Allow(key string) bool
}

// Throttle は認証済みユーザーごとに指定アクションの頻度を制限する
// ミドルウェアを返す。上限超過時は429を返す。
// session.AuthRequiredの後段で使用すること。
func Throttle(limiter Limiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(session.ContextUserID)
		key := fmt.Sprintf("%s:%d", action, userID)
		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
