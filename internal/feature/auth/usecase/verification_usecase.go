package usecase

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"
)

// VerificationLinkCodec は署名付き検証リンクの生成・検証を抽象化します。
// リンクのパラメータはサーバー自身が発行したことを検証可能な形で署名されます。
type VerificationLinkCodec interface {
	// SignedURL はユーザーID・メールハッシュを署名した時限付き検証URLを返します。
	SignedURL(userID uint, emailHash string) (string, error)

	// Verify は署名を検証し、署名に含まれるユーザーIDとメールハッシュを返します。
	// 署名不正・期限切れの場合はエラーを返します。
	Verify(signature string) (userID uint, emailHash string, err error)
}

// VerificationMailer は検証メールの送信を抽象化します。
type VerificationMailer interface {
	// SendVerificationEmail は署名付き検証リンクを送信します。
	SendVerificationEmail(ctx context.Context, to, name, link string) error
}

// verificationUsecase はメールアドレス検証のライフサイクルを実装します。
type verificationUsecase struct {
	users  UserRepository
	links  VerificationLinkCodec
	mailer VerificationMailer
	now    func() time.Time
}

// NewVerificationUsecase はverificationUsecaseの新しいインスタンスを生成します。
func NewVerificationUsecase(users UserRepository, links VerificationLinkCodec, mailer VerificationMailer) *verificationUsecase {
	return &verificationUsecase{
		users:  users,
		links:  links,
		mailer: mailer,
		now:    time.Now,
	}
}

// emailHash はメールアドレスの検証用ハッシュ（sha1のhex表現）を返します。
func emailHash(email string) string {
	sum := sha1.Sum([]byte(email))
	return hex.EncodeToString(sum[:])
}

// SendVerification は検証メールを送信します。
// 既に検証済みの場合はErrAlreadyVerifiedを返します。
// 送信失敗はそのまま呼び出し元へ伝播します（再送エンドポイントで5xxにするため）。
func (u *verificationUsecase) SendVerification(ctx context.Context, userID uint) error {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasVerifiedEmail() {
		return ErrAlreadyVerified
	}

	link, err := u.links.SignedURL(user.ID, emailHash(user.Email))
	if err != nil {
		return err
	}
	return u.mailer.SendVerificationEmail(ctx, user.Email, user.Name, link)
}

// Verify は署名付きリンクのパラメータを検証し、ユーザーを検証済みにします。
// 検証済みフラグは一度だけ設定され、再訪問は状態を変えずに成功します。
func (u *verificationUsecase) Verify(ctx context.Context, userID uint, hash, signature string) error {
	signedID, signedHash, err := u.links.Verify(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if signedID != userID || subtle.ConstantTimeCompare([]byte(signedHash), []byte(hash)) != 1 {
		return ErrInvalidSignature
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidSignature
		}
		return err
	}

	// ハッシュが現在のメールアドレスと一致することも確認する
	if subtle.ConstantTimeCompare([]byte(emailHash(user.Email)), []byte(hash)) != 1 {
		return ErrInvalidSignature
	}

	if user.HasVerifiedEmail() {
		return nil
	}
	return u.users.MarkVerified(ctx, user.ID, u.now())
}

// IsVerified は指定ユーザーのメールが検証済みかを返します。
func (u *verificationUsecase) IsVerified(ctx context.Context, userID uint) (bool, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.HasVerifiedEmail(), nil
}
