package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskly_backend/internal/feature/auth/domain/entity"
	"taskly_backend/internal/shared/validation"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレス（小文字化済み）に一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// MarkVerified はユーザーのEmailVerifiedAtを設定します。
	// 既に検証済みの場合は何もしません。
	MarkVerified(ctx context.Context, id uint, verifiedAt time.Time) error
}

// RegisterInput は新規登録リクエストの入力値です。
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users      UserRepository
	sessions   SessionRepository
	sessionTTL time.Duration
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, sessionTTL time.Duration) *authUsecase {
	return &authUsecase{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Register は入力を検証し、ハッシュ化されたパスワードで新規ユーザーを登録します。
// 制約違反はフィールド単位のValidationErrorとして返します。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	errs := validation.New()

	if in.Name == "" {
		errs.Add("name", "The name field is required.")
	} else if len(in.Name) > maxFieldLength {
		errs.Add("name", "The name may not be greater than 255 characters.")
	}

	email := normalizeEmail(in.Email)
	switch {
	case email == "":
		errs.Add("email", "The email field is required.")
	case len(email) > maxFieldLength:
		errs.Add("email", "The email may not be greater than 255 characters.")
	case !validEmailFormat(email):
		errs.Add("email", "The email must be a valid email address.")
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
		return nil, errs
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Name:     in.Name,
		Email:    email,
		Password: string(hashed),
	}
	if err := u.users.Create(ctx, user); err != nil {
		if err == ErrEmailAlreadyExists {
			errs.Add("email", "The email has already been taken.")
			return nil, errs
		}
		return nil, err
	}

	return user, nil
}

// Login はユーザーを認証し、成功時にユーザーを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*entity.User, error) {
	errs := validation.New()
	email = normalizeEmail(email)
	if email == "" {
		errs.Add("email", "The email field is required.")
	} else if !validEmailFormat(email) {
		errs.Add("email", "The email must be a valid email address.")
	}
	if password == "" {
		errs.Add("password", "The password field is required.")
	}
	if errs.HasErrors() {
		return nil, errs
	}

	user, err := u.users.FindByEmail(ctx, email)

	// ユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュ
	// bcrypt.CompareHashAndPasswordが常に呼ばれることを保証する
	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // ダミーハッシュ
	if err == nil {
		passwordHash = user.Password
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	// ユーザー未検出またはパスワード不一致の場合、汎用エラーを返す
	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// EstablishSession は指定ユーザーの新しいセッションを発行します。
// セッションIDは毎回新規生成されるため、ログイン時のCookie差し替えで
// セッション固定攻撃を防止できます。
func (u *authUsecase) EstablishSession(ctx context.Context, userID uint, userAgent, ipAddress string) (*entity.Session, error) {
	now := time.Now()
	session := &entity.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.sessionTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Logout は現在のセッションを失効させます。
// セッションが存在しない場合もエラーにせず、冪等に動作します。
func (u *authUsecase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := u.sessions.Revoke(ctx, sessionID); err != nil {
		if err == ErrSessionNotFound {
			return nil
		}
		return err
	}
	return nil
}

// CurrentUser はセッションIDから認証済みユーザーを解決します。
// セッションが無効・失効済みの場合はErrSessionNotFoundを返します。
func (u *authUsecase) CurrentUser(ctx context.Context, sessionID string) (*entity.User, error) {
	session, err := u.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsValid() {
		return nil, ErrSessionNotFound
	}
	return u.users.FindByID(ctx, session.UserID)
}
