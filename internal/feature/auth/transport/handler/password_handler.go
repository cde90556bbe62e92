package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/feature/auth/transport/http/dto"
	"taskly_backend/internal/feature/auth/usecase"
)

// PasswordResetUsecase はパスワードリセットのユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type PasswordResetUsecase interface {
	// RequestReset はリセットトークンを発行し、メールを送信します。
	// ユーザー列挙防止のため、未登録メールでもエラーを返しません。
	RequestReset(ctx context.Context, email string) error
	// ValidateToken はトークンの有効性を検証します。
	ValidateToken(ctx context.Context, email, token string) error
	// Reset はトークンを消費して新しいパスワードを設定します。
	Reset(ctx context.Context, in usecase.ResetInput) error
}

// PasswordHandler はパスワードリセット操作のHTTPリクエストを処理します。
type PasswordHandler struct {
	reset PasswordResetUsecase
}

// NewPasswordHandler はPasswordHandlerの新しいインスタンスを生成します。
func NewPasswordHandler(reset PasswordResetUsecase) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// Email はリセットリンク送信エンドポイントを処理します。
// メールアドレスの登録有無にかかわらず同じ200を返します（列挙防止）。
func (h *PasswordHandler) Email(c *gin.Context) {
	var req dto.ForgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("password email binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		if respondValidation(c, err) {
			return
		}
		slog.Error("password reset request failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset link sent to your email.",
		"status":  "passwords.sent",
	})
}

// ValidateToken はリセットトークン検証エンドポイントを処理します。
// フロントエンドがリセットフォーム表示前に呼び出します。
func (h *PasswordHandler) ValidateToken(c *gin.Context) {
	var req dto.ValidateTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("validate token binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	err := h.reset.ValidateToken(c.Request.Context(), req.Email, req.Token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"valid": true, "message": "Token is valid."})
	case errors.Is(err, usecase.ErrResetTokenExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "message": "Reset token has expired. Please request a new one."})
	case errors.Is(err, usecase.ErrResetTokenInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "message": "Invalid reset token."})
	default:
		slog.Error("token validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// Reset はパスワードリセット実行エンドポイントを処理します。
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req dto.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("password reset binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	err := h.reset.Reset(c.Request.Context(), usecase.ResetInput{
		Email:                req.Email,
		Token:                req.Token,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	switch {
	case err == nil:
		slog.Info("password reset successful", "remote_addr", c.ClientIP())
		c.JSON(http.StatusOK, gin.H{
			"message": "Password has been reset successfully.",
			"status":  "passwords.reset",
		})
	case respondValidation(c, err):
	case errors.Is(err, usecase.ErrResetTokenExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "message": "Reset token has expired. Please request a new one."})
	case errors.Is(err, usecase.ErrResetTokenInvalid), errors.Is(err, usecase.ErrUserNotFound):
		// 未登録メールもトークン不正として扱う（列挙防止）
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "message": "Invalid reset token."})
	default:
		slog.Error("password reset failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
