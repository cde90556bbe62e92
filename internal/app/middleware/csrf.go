// Package middleware はアプリケーション横断のGinミドルウェアを提供します。
package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	// フロントエンドからJavaScriptで読み取れるよう、HttpOnlyではない。
	csrfCookieName = "csrf_token"

	// csrfHeaderName はリクエストヘッダーからCSRFトークンを読み取る際のヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// csrfCookieMaxAge はCSRFトークンCookieの有効期間（秒）。24時間。
	csrfCookieMaxAge = 86400
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// generateCSRFToken は暗号的に安全なCSRFトークンを生成する。
func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// setCSRFCookie はCSRFトークンCookieを書き込む。
func setCSRFCookie(c *gin.Context, config CSRFConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(csrfCookieName, token, csrfCookieMaxAge, "/", config.CookieDomain, config.CookieSecure, false)
}

// CSRF はCSRFトークンの生成・検証ミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）はトークン検証をスキップし、
// 状態変更メソッド（POST, PUT, PATCH, DELETE）はCookieとヘッダーの
// トークン一致を必須とする（double-submit cookie方式）。
func CSRF(config CSRFConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		cookieToken, err := c.Cookie(csrfCookieName)
		if err != nil || cookieToken == "" {
			slog.Warn("CSRF validation failed: missing cookie token",
				"method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "CSRF token validation failed"})
			return
		}

		headerToken := c.GetHeader(csrfHeaderName)
		if headerToken == "" {
			slog.Warn("CSRF validation failed: missing header token",
				"method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "CSRF token validation failed"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
			slog.Warn("CSRF validation failed: token mismatch",
				"method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "CSRF token validation failed"})
			return
		}

		c.Next()
	}
}

// CSRFCookieHandler はCSRFトークン取得（Cookieプライミング）エンドポイントの
// ハンドラーを返す。既存のトークンCookieがあればそれを維持し、なければ新規発行する。
func CSRFCookieHandler(config CSRFConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(csrfCookieName); err == nil && token != "" {
			c.JSON(http.StatusOK, gin.H{"message": "CSRF cookie set"})
			return
		}

		token, err := generateCSRFToken()
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		setCSRFCookie(c, config, token)
		c.JSON(http.StatusOK, gin.H{"message": "CSRF cookie set"})
	}
}

// RotateCSRFCookie はログアウト時などにCSRFトークンを再発行する。
func RotateCSRFCookie(c *gin.Context, config CSRFConfig) {
	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to rotate CSRF token", "error", err)
		return
	}
	setCSRFCookie(c, config, token)
}
