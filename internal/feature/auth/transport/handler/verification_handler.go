package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/feature/auth/usecase"
	"taskly_backend/internal/platform/session"
)

// VerificationUsecase はメールアドレス検証のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type VerificationUsecase interface {
	// SendVerification は署名付き検証リンクをメール送信します。
	SendVerification(ctx context.Context, userID uint) error
	// Verify は署名付きリンクのパラメータを検証し、ユーザーを検証済みにします。
	Verify(ctx context.Context, userID uint, hash, signature string) error
	// IsVerified は指定ユーザーのメールが検証済みかを返します。
	IsVerified(ctx context.Context, userID uint) (bool, error)
}

// VerificationHandler はメール検証操作のHTTPリクエストを処理します。
type VerificationHandler struct {
	verification VerificationUsecase
	appURL       string
}

// NewVerificationHandler はVerificationHandlerの新しいインスタンスを生成します。
func NewVerificationHandler(verification VerificationUsecase, appURL string) *VerificationHandler {
	return &VerificationHandler{verification: verification, appURL: appURL}
}

// Verify は検証リンクのクリックを処理します。
// 署名自体が資格情報なのでセッションは不要です。成功時はフロントエンドへ
// リダイレクトします（再クリックも成功扱い）。
func (h *VerificationHandler) Verify(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Invalid or expired verification link."})
		return
	}

	err = h.verification.Verify(c.Request.Context(), uint(id), c.Param("hash"), c.Query("signature"))
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSignature) {
			slog.Warn("email verification rejected", "user_id", id, "remote_addr", c.ClientIP())
			c.JSON(http.StatusForbidden, gin.H{"message": "Invalid or expired verification link."})
			return
		}
		slog.Error("email verification failed", "error", err, "user_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	slog.Info("email verified", "user_id", id)
	c.Redirect(http.StatusFound, h.appURL+"/home")
}

// Status は現在のユーザーの検証状態を返します。
func (h *VerificationHandler) Status(c *gin.Context) {
	userID := c.GetUint(session.ContextUserID)
	verified, err := h.verification.IsVerified(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to load verification status", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email_verified": verified})
}

// Resend は検証メールを再送します。検証済みの場合は送信せずに200を返します。
// レート制限（3回/分）はルーター側のThrottleミドルウェアが担います。
func (h *VerificationHandler) Resend(c *gin.Context) {
	userID := c.GetUint(session.ContextUserID)
	err := h.verification.SendVerification(c.Request.Context(), userID)
	switch {
	case err == nil:
		slog.Info("verification email resent", "user_id", userID)
		c.JSON(http.StatusOK, gin.H{"message": "Verification link sent"})
	case errors.Is(err, usecase.ErrAlreadyVerified):
		c.JSON(http.StatusOK, gin.H{"message": "Already verified"})
	default:
		slog.Error("failed to resend verification email", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send verification email"})
	}
}
