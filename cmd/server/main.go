package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/app/middleware"
	"taskly_backend/internal/app/router"
	authadapters "taskly_backend/internal/feature/auth/adapters"
	authhandler "taskly_backend/internal/feature/auth/transport/handler"
	authusecase "taskly_backend/internal/feature/auth/usecase"
	taskadapters "taskly_backend/internal/feature/tasks/adapters"
	taskhandler "taskly_backend/internal/feature/tasks/transport/handler"
	taskusecase "taskly_backend/internal/feature/tasks/usecase"
	"taskly_backend/internal/platform/cache"
	platformdb "taskly_backend/internal/platform/db"
	"taskly_backend/internal/platform/mail"
	platformredis "taskly_backend/internal/platform/redis"
	"taskly_backend/internal/platform/session"
	"taskly_backend/internal/platform/signedlink"
	"taskly_backend/internal/shared/ratelimiter"
)

// envOr は環境変数が未設定のときフォールバック値を返します。
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration は環境変数をtime.Durationとして読み取ります。
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func main() {
	// db
	db := platformdb.OpenDB()

	// Redis（セッションストアなので必須）
	rdb, err := platformredis.NewRedisClient()
	if err != nil {
		log.Fatal("[ERROR] Redis unavailable. Sessions require Redis: ", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Println("[ERROR] Failed to close Redis client:", err)
		}
	}()

	appURL := envOr("APP_URL", "http://localhost:8080")
	appKey := os.Getenv("APP_KEY")
	if appKey == "" {
		log.Println("[WARN] APP_KEY is not set. Set a strong secret in production.")
		appKey = "insecure-dev-key"
	}

	sessionTTL := envDuration("SESSION_TTL", 720*time.Hour)
	resetTTL := envDuration("PASSWORD_RESET_TTL", authusecase.DefaultResetTokenTTL)

	// Repository
	userRepo := authadapters.NewUserPostgres(db)
	resetTokenRepo := authadapters.NewResetTokenPostgres(db)
	sessionRepo := session.NewSessionRedis(rdb, "session")
	taskRepo := taskadapters.NewTaskPostgres(db)
	statsRepo := taskadapters.NewStatsPostgres(db)

	// 集計はRedisキャッシュでラップし、タスク書き込みで無効化する
	cachedStatsRepo := cache.NewCachingStatsRepository(rdb, 5*time.Minute, statsRepo, "stats")

	// メール送信（SMTP_HOST未設定ならログ出力のみ）
	var mailer *mail.Mailer
	if host := os.Getenv("SMTP_HOST"); host != "" {
		mailer = mail.NewSMTPMailer(host, envOr("SMTP_PORT", "587"),
			os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"),
			envOr("MAIL_FROM", "noreply@taskly.local"))
	} else {
		log.Println("[WARN] SMTP_HOST is not set. Emails will only be logged.")
		mailer = mail.NewLogMailer()
	}

	linkCodec := signedlink.NewCodec(appKey, appURL, signedlink.DefaultExpiration)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, sessionRepo, sessionTTL)
	resetUC := authusecase.NewPasswordResetUsecase(userRepo, resetTokenRepo, sessionRepo, mailer, appURL, resetTTL)
	verificationUC := authusecase.NewVerificationUsecase(userRepo, linkCodec, mailer)
	taskUC := taskusecase.NewTaskUsecase(taskRepo, cachedStatsRepo)
	statsUC := taskusecase.NewStatsUsecase(cachedStatsRepo)

	// Cookie設定
	cookieSecure, _ := strconv.ParseBool(os.Getenv("COOKIE_SECURE"))
	cookieCfg := session.CookieConfig{
		Domain: os.Getenv("COOKIE_DOMAIN"),
		Secure: cookieSecure,
		MaxAge: int(sessionTTL.Seconds()),
	}
	csrfCfg := middleware.CSRFConfig{
		CookieSecure: cookieSecure,
		CookieDomain: os.Getenv("COOKIE_DOMAIN"),
	}

	// 検証メール再送のレート制限（3回/分）
	resendLimiter := ratelimiter.NewKeyedLimiter(3, 10*time.Minute)
	defer resendLimiter.Stop()

	// Handler
	authH := authhandler.NewAuthHandler(authUC, verificationUC, cookieCfg, func(c *gin.Context) {
		middleware.RotateCSRFCookie(c, csrfCfg)
	})
	passwordH := authhandler.NewPasswordHandler(resetUC)
	verificationH := authhandler.NewVerificationHandler(verificationUC, appURL)
	taskH := taskhandler.NewTaskHandler(taskUC)
	statsH := taskhandler.NewStatsHandler(statsUC)

	// 期限切れリセットトークンの定期掃除
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			deleted, err := resetUC.CleanupExpiredTokens(context.Background())
			if err != nil {
				slog.Error("reset token cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("expired reset tokens cleaned up", "deleted", deleted)
			}
		}
	}()

	// ルータ生成
	r := router.NewRouter(router.Handlers{
		Auth:         authH,
		Password:     passwordH,
		Verification: verificationH,
		Tasks:        taskH,
		Stats:        statsH,
	}, router.Config{
		CSRF:          csrfCfg,
		Resolver:      authUC,
		ResendLimiter: resendLimiter,
	})

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
