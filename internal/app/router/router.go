// Package router はアプリケーションのルートテーブルを定義します。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/app/middleware"
	authhandler "taskly_backend/internal/feature/auth/transport/handler"
	taskhandler "taskly_backend/internal/feature/tasks/transport/handler"
	"taskly_backend/internal/platform/session"
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Auth         *authhandler.AuthHandler
	Password     *authhandler.PasswordHandler
	Verification *authhandler.VerificationHandler
	Tasks        *taskhandler.TaskHandler
	Stats        *taskhandler.StatsHandler
}

// Config はルーターのミドルウェア設定です。
type Config struct {
	CSRF          middleware.CSRFConfig
	Resolver      session.UserResolver
	ResendLimiter middleware.Limiter
}

// NewRouter はルートテーブルを構築します。
// 状態変更メソッドは全ルートでCSRF検証を通過し、タスク系ルートは
// セッション + メール検証済み + AJAXヘッダーを必須とします。
func NewRouter(h Handlers, cfg Config) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CSRF(cfg.CSRF))

	// 導通確認用
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// CSRF Cookieのプライミング（フロントエンド互換のためパス名を維持）
	r.GET("/sanctum/csrf-cookie", middleware.CSRFCookieHandler(cfg.CSRF))

	// 認証不要
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)
	r.POST("/password/email", h.Password.Email)
	r.POST("/password/validate-token", h.Password.ValidateToken)
	r.POST("/password/reset", h.Password.Reset)

	// 署名付きリンク自体が資格情報なのでセッション不要
	r.GET("/email/verify/:id/:hash", h.Verification.Verify)

	// セッションの有無で応答を変えるため、AuthRequiredは使わない
	r.GET("/user", middleware.AjaxOnly(), h.Auth.User)
	r.POST("/logout", middleware.AjaxOnly(), h.Auth.Logout)

	// セッション必須のルート
	authed := r.Group("/")
	authed.Use(session.AuthRequired(cfg.Resolver))
	{
		authed.GET("/email/verify", h.Verification.Status)
		authed.POST("/email/verification-notification",
			middleware.Throttle(cfg.ResendLimiter, "verification-resend"), h.Verification.Resend)
	}

	// セッション + メール検証済み + AJAXヘッダー必須のルート
	tasks := r.Group("/tasks")
	tasks.Use(session.AuthRequired(cfg.Resolver), session.VerifiedRequired(), middleware.AjaxOnly())
	{
		// 集計ルートは/tasks/:idより先に登録する（パス衝突回避）
		tasks.GET("/status-counts", h.Stats.StatusCounts)
		tasks.GET("/priority-counts", h.Stats.PriorityCounts)
		tasks.GET("/bar-chart", h.Stats.BarChart)
		tasks.GET("/productivity", h.Stats.Productivity)

		tasks.GET("", h.Tasks.List)
		tasks.POST("", h.Tasks.Create)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.PUT("/:id", h.Tasks.Update)
		tasks.DELETE("/:id", h.Tasks.Delete)
	}

	return r
}
