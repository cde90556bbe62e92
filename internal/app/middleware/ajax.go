package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ajaxHeaderValue はfetch/XHRクライアントが付与する識別ヘッダーの値。
const ajaxHeaderValue = "XMLHttpRequest"

// AjaxOnly はAJAX/fetchリクエストのみを許可するミドルウェアを返す。
// ブラウザの直接ナビゲーションによるAPIアクセスを403で拒否する。
func AjaxOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Requested-With") != ajaxHeaderValue {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Direct access not allowed"})
			return
		}
		c.Next()
	}
}
