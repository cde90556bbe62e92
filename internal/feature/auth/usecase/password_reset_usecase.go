package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskly_backend/internal/feature/auth/domain/entity"
	"taskly_backend/internal/shared/validation"
)

// DefaultResetTokenTTL はリセットトークンの有効期限のデフォルト値です。
const DefaultResetTokenTTL = 60 * time.Minute

// resetTokenBytes は平文トークンの乱数長（バイト）です。hex化で64文字になります。
const resetTokenBytes = 32

// ResetTokenRepository はパスワードリセットトークンの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはコンシューマー（usecase）が定義します。
type ResetTokenRepository interface {
	// Upsert はトークン行を保存します。同じメールアドレスの既存行は置き換えられます。
	Upsert(ctx context.Context, token *entity.PasswordResetToken) error

	// FindByEmail はメールアドレスでトークン行を取得します。
	// 行が存在しない場合、ErrResetTokenInvalidを返します。
	FindByEmail(ctx context.Context, email string) (*entity.PasswordResetToken, error)

	// DeleteByEmail はメールアドレスのトークン行を削除します。行がなくてもエラーにしません。
	DeleteByEmail(ctx context.Context, email string) error

	// Consume は1トランザクション内でトークン消費とパスワード更新を行います。
	// (email, tokenHash) に一致する行を削除し、0行だった場合はロールバックして
	// ErrResetTokenInvalidを返します。これにより同一メールへの並行リセットが
	// 二重に成功することはありません。
	Consume(ctx context.Context, email, tokenHash, newPasswordHash, rememberToken string) error

	// DeleteOlderThan はcutoffより古いトークン行を一括削除し、削除件数を返します。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PasswordResetMailer はリセットメールの送信を抽象化します。
type PasswordResetMailer interface {
	// SendPasswordResetEmail は平文トークンを含むリセットリンクを送信します。
	SendPasswordResetEmail(ctx context.Context, to, name, link string, expireMinutes int) error
}

// ResetInput はパスワードリセット実行の入力値です。
type ResetInput struct {
	Email                string
	Token                string
	Password             string
	PasswordConfirmation string
}

// passwordResetUsecase はパスワードリセットのトークンライフサイクルを実装します。
// 状態遷移: NoToken → TokenIssued → {Consumed, Expired} → NoToken。
// 1メールアドレスにつき有効なトークンは常に最大1つです。
type passwordResetUsecase struct {
	users    UserRepository
	tokens   ResetTokenRepository
	sessions SessionRepository
	mailer   PasswordResetMailer
	appURL   string
	ttl      time.Duration
	now      func() time.Time
}

// NewPasswordResetUsecase はpasswordResetUsecaseの新しいインスタンスを生成します。
// ttlが0以下の場合はDefaultResetTokenTTL（60分）を使用します。
func NewPasswordResetUsecase(users UserRepository, tokens ResetTokenRepository,
	sessions SessionRepository, mailer PasswordResetMailer, appURL string, ttl time.Duration) *passwordResetUsecase {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &passwordResetUsecase{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
		appURL:   appURL,
		ttl:      ttl,
		now:      time.Now,
	}
}

// generateResetToken は高エントロピーの平文トークンを生成します。
func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RequestReset はリセットトークンを発行し、リセットメールを送信します。
// ユーザー列挙を防止するため、未登録のメールアドレスでもエラーを返しません。
// 既存トークンは新しいトークンで上書きされます。
func (u *passwordResetUsecase) RequestReset(ctx context.Context, email string) error {
	errs := validation.New()
	email = normalizeEmail(email)
	if email == "" {
		errs.Add("email", "The email field is required.")
	} else if !validEmailFormat(email) {
		errs.Add("email", "The email must be a valid email address.")
	}
	if errs.HasErrors() {
		return errs
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// 未登録でも成功として扱う（列挙防止）
			return nil
		}
		return err
	}

	plain, err := generateResetToken()
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash reset token: %w", err)
	}

	if err := u.tokens.Upsert(ctx, &entity.PasswordResetToken{
		Email:     email,
		Token:     string(hashed),
		CreatedAt: u.now(),
	}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", u.appURL, plain, url.QueryEscape(email))
	if err := u.mailer.SendPasswordResetEmail(ctx, email, user.Name, link, int(u.ttl.Minutes())); err != nil {
		// トークンは発行済みなので送信失敗でリクエスト自体は失敗させない
		slog.Error("failed to send password reset email", "error", err, "email", email)
	}
	return nil
}

// ValidateToken は保存済みハッシュと照合してトークンの有効性を検証します。
// 期限切れを検出した場合はその場で行を削除します（遅延期限切れ処理）。
func (u *passwordResetUsecase) ValidateToken(ctx context.Context, email, token string) error {
	_, err := u.validTokenRecord(ctx, normalizeEmail(email), token)
	return err
}

// validTokenRecord はトークンと照合できた行を返します。Resetはこの行の
// ハッシュをそのままConsumeへ渡すため、検証と消費の間に行が差し替わっても
// 古い平文トークンでの消費は成立しません。
func (u *passwordResetUsecase) validTokenRecord(ctx context.Context, email, token string) (*entity.PasswordResetToken, error) {
	record, err := u.tokens.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// bcrypt比較は定数時間で行われ、タイミングでの照合位置漏洩はない
	if bcrypt.CompareHashAndPassword([]byte(record.Token), []byte(token)) != nil {
		return nil, ErrResetTokenInvalid
	}

	if record.IsExpired(u.now(), u.ttl) {
		if err := u.tokens.DeleteByEmail(ctx, email); err != nil {
			return nil, err
		}
		return nil, ErrResetTokenExpired
	}

	return record, nil
}

// Reset はトークンを検証し、新しいパスワードを設定します。
// トークン消費・パスワード更新・remember-token回転は1トランザクションで行われ、
// 成功時にはユーザーの全セッションを失効させます。
func (u *passwordResetUsecase) Reset(ctx context.Context, in ResetInput) error {
	errs := validation.New()
	email := normalizeEmail(in.Email)
	if email == "" {
		errs.Add("email", "The email field is required.")
	} else if !validEmailFormat(email) {
		errs.Add("email", "The email must be a valid email address.")
	}
	if in.Token == "" {
		errs.Add("token", "The token field is required.")
	}
	if in.Password == "" {
		errs.Add("password", "The password field is required.")
	} else {
		if in.Password != in.PasswordConfirmation {
			errs.Add("password", "The password confirmation does not match.")
		}
		validatePasswordPolicy(in.Password, errs)
	}
	if errs.HasErrors() {
		return errs
	}

	record, err := u.validTokenRecord(ctx, email, in.Token)
	if err != nil {
		return err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// 保存済みハッシュに一致する行の削除とパスワード更新をアトミックに実行する。
	// 並行リセットで先に消費されていた場合はErrResetTokenInvalidになる。
	if err := u.tokens.Consume(ctx, email, record.Token, string(hashed), uuid.NewString()); err != nil {
		return err
	}

	if err := u.sessions.RevokeAllByUserID(ctx, user.ID); err != nil {
		slog.Error("failed to revoke sessions after password reset", "error", err, "user_id", user.ID)
	}
	return nil
}

// CleanupExpiredTokens は期限切れのトークン行を一括削除し、削除件数を返します。
// 定期実行される掃除処理で、期限内の行には影響しないため並行実行も安全です。
func (u *passwordResetUsecase) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return u.tokens.DeleteOlderThan(ctx, u.now().Add(-u.ttl))
}
