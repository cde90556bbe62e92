// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/feature/auth/domain/entity"
	"taskly_backend/internal/feature/auth/transport/http/dto"
	"taskly_backend/internal/feature/auth/usecase"
	"taskly_backend/internal/platform/session"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は入力を検証して新規ユーザーを登録します。
	Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
	// Login はユーザーを認証し、成功時にユーザーを返します。
	Login(ctx context.Context, email, password string) (*entity.User, error)
	// EstablishSession は指定ユーザーの新しいセッションを発行します。
	EstablishSession(ctx context.Context, userID uint, userAgent, ipAddress string) (*entity.Session, error)
	// Logout はセッションを失効させます。冪等に動作します。
	Logout(ctx context.Context, sessionID string) error
	// CurrentUser はセッションIDから認証済みユーザーを解決します。
	CurrentUser(ctx context.Context, sessionID string) (*entity.User, error)
}

// VerificationSender は登録直後の検証メール送信を抽象化します。
type VerificationSender interface {
	SendVerification(ctx context.Context, userID uint) error
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth         AuthUsecase
	verification VerificationSender
	cookies      session.CookieConfig
	rotateCSRF   func(*gin.Context)
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// rotateCSRFはログアウト時のCSRFトークン再発行に使われます（nil可）。
func NewAuthHandler(auth AuthUsecase, verification VerificationSender,
	cookies session.CookieConfig, rotateCSRF func(*gin.Context)) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		verification: verification,
		cookies:      cookies,
		rotateCSRF:   rotateCSRF,
	}
}

// establishSession はログイン済みユーザーのセッションを発行してCookieを差し替えます。
func (h *AuthHandler) establishSession(c *gin.Context, userID uint) error {
	sess, err := h.auth.EstablishSession(c.Request.Context(), userID, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		return err
	}
	session.SetCookie(c, h.cookies, sess.ID)
	return nil
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーション違反時はフィールド単位の422を返却
// - 成功時は検証メールを送信（失敗してもログのみ）し、自動ログインして200を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		if respondValidation(c, err) {
			slog.Warn("register validation failed", "remote_addr", c.ClientIP())
			return
		}
		slog.Error("register failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	// 検証メールはベストエフォート。失敗しても登録自体は成功扱い。
	if err := h.verification.SendVerification(c.Request.Context(), user.ID); err != nil {
		slog.Error("failed to send verification email after register", "error", err, "user_id", user.ID)
	}

	if err := h.establishSession(c, user.ID); err != nil {
		slog.Error("failed to establish session after register", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	slog.Info("user registered", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Registered and logged in. Please check your email to verify."})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// 認証失敗はメールアドレスの存在有無を問わず同じ422を返します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": "The given data was invalid.",
				"errors":  gin.H{"email": []string{"The provided credentials are incorrect."}},
			})
			return
		}
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	// 新しいセッションIDでCookieを必ず差し替える（セッション固定対策）
	if err := h.establishSession(c, user.ID); err != nil {
		slog.Error("failed to establish session", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "Logged in successfully"})
}

// Logout は現在のセッションを失効させ、Cookieを破棄します。
// セッションが存在しない場合も200を返します（冪等）。
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _ := c.Cookie(session.CookieName)
	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		slog.Error("logout failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	session.ClearCookie(c, h.cookies)
	if h.rotateCSRF != nil {
		h.rotateCSRF(c)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// User は現在のユーザーを返します。
// 有効なセッションがない場合はJSON nullを返します（どちらも200）。
func (h *AuthHandler) User(c *gin.Context) {
	sessionID, err := c.Cookie(session.CookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusOK, nil)
		return
	}
	user, err := h.auth.CurrentUser(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, user)
}
