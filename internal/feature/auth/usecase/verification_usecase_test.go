package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"taskly_backend/internal/feature/auth/domain/entity"
)

// mockLinkCodec is a mock implementation of the VerificationLinkCodec interface.
type mockLinkCodec struct {
	SignedURLFunc func(userID uint, emailHash string) (string, error)
	VerifyFunc    func(signature string) (uint, string, error)
}

func (m *mockLinkCodec) SignedURL(userID uint, emailHash string) (string, error) {
	if m.SignedURLFunc != nil {
		return m.SignedURLFunc(userID, emailHash)
	}
	return fmt.Sprintf("http://localhost:8080/api/email/verify/%d/%s?signature=sig", userID, emailHash), nil
}

func (m *mockLinkCodec) Verify(signature string) (uint, string, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(signature)
	}
	return 0, "", errors.New("invalid signature")
}

// mockVerificationMailer records sent verification links.
type mockVerificationMailer struct {
	SendFunc func(ctx context.Context, to, name, link string) error
	sent     []string
}

func (m *mockVerificationMailer) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	m.sent = append(m.sent, link)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, name, link)
	}
	return nil
}

func TestVerificationUsecase_SendVerification(t *testing.T) {
	user := &entity.User{ID: 1, Name: "Taro", Email: "taro@example.com"}

	t.Run("sends a signed link for unverified users", func(t *testing.T) {
		mailer := &mockVerificationMailer{}
		uc := NewVerificationUsecase(knownUserRepository(user), &mockLinkCodec{}, mailer)

		if err := uc.SendVerification(context.Background(), 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mailer.sent) != 1 {
			t.Fatalf("expected 1 mail, got: %d", len(mailer.sent))
		}
	})

	t.Run("already verified users get ErrAlreadyVerified", func(t *testing.T) {
		verifiedAt := time.Now()
		verified := &entity.User{ID: 2, Name: "Hanako", Email: "hanako@example.com", EmailVerifiedAt: &verifiedAt}
		mailer := &mockVerificationMailer{}
		uc := NewVerificationUsecase(knownUserRepository(verified), &mockLinkCodec{}, mailer)

		err := uc.SendVerification(context.Background(), 2)
		if !errors.Is(err, ErrAlreadyVerified) {
			t.Errorf("expected ErrAlreadyVerified, got: %v", err)
		}
		if len(mailer.sent) != 0 {
			t.Error("no mail should be sent to verified users")
		}
	})

	t.Run("mail failure propagates", func(t *testing.T) {
		mailer := &mockVerificationMailer{
			SendFunc: func(ctx context.Context, to, name, link string) error {
				return errors.New("smtp unreachable")
			},
		}
		uc := NewVerificationUsecase(knownUserRepository(user), &mockLinkCodec{}, mailer)

		if err := uc.SendVerification(context.Background(), 1); err == nil {
			t.Error("expected mail failure to propagate")
		}
	})
}

func TestVerificationUsecase_Verify(t *testing.T) {
	hash := emailHash("taro@example.com")

	newUser := func() *entity.User {
		return &entity.User{ID: 1, Name: "Taro", Email: "taro@example.com"}
	}

	validCodec := func(userID uint, hash string) *mockLinkCodec {
		return &mockLinkCodec{
			VerifyFunc: func(signature string) (uint, string, error) {
				if signature == "good" {
					return userID, hash, nil
				}
				return 0, "", errors.New("invalid signature")
			},
		}
	}

	t.Run("valid link marks the user verified once", func(t *testing.T) {
		user := newUser()
		marked := 0
		repo := knownUserRepository(user)
		repo.MarkVerifiedFunc = func(ctx context.Context, id uint, verifiedAt time.Time) error {
			marked++
			user.EmailVerifiedAt = &verifiedAt
			return nil
		}
		uc := NewVerificationUsecase(repo, validCodec(1, hash), &mockVerificationMailer{})

		if err := uc.Verify(context.Background(), 1, hash, "good"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if marked != 1 {
			t.Fatalf("expected one MarkVerified call, got: %d", marked)
		}

		// Re-clicking the link succeeds without another update
		if err := uc.Verify(context.Background(), 1, hash, "good"); err != nil {
			t.Fatalf("re-verify should succeed: %v", err)
		}
		if marked != 1 {
			t.Errorf("re-verify must not update again, got %d calls", marked)
		}
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		uc := NewVerificationUsecase(knownUserRepository(newUser()), validCodec(1, hash), &mockVerificationMailer{})

		err := uc.Verify(context.Background(), 1, hash, "tampered")
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got: %v", err)
		}
	})

	t.Run("user ID mismatch is rejected", func(t *testing.T) {
		uc := NewVerificationUsecase(knownUserRepository(newUser()), validCodec(1, hash), &mockVerificationMailer{})

		err := uc.Verify(context.Background(), 2, hash, "good")
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got: %v", err)
		}
	})

	t.Run("hash of a different email is rejected", func(t *testing.T) {
		otherHash := emailHash("other@example.com")
		uc := NewVerificationUsecase(knownUserRepository(newUser()), validCodec(1, otherHash), &mockVerificationMailer{})

		err := uc.Verify(context.Background(), 1, otherHash, "good")
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got: %v", err)
		}
	})

	t.Run("unknown user is indistinguishable from a bad signature", func(t *testing.T) {
		uc := NewVerificationUsecase(&mockUserRepository{}, validCodec(99, hash), &mockVerificationMailer{})

		err := uc.Verify(context.Background(), 99, hash, "good")
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got: %v", err)
		}
	})
}

func TestVerificationUsecase_IsVerified(t *testing.T) {
	verifiedAt := time.Now()
	tests := []struct {
		name string
		user *entity.User
		want bool
	}{
		{"unverified", &entity.User{ID: 1, Email: "a@example.com"}, false},
		{"verified", &entity.User{ID: 1, Email: "a@example.com", EmailVerifiedAt: &verifiedAt}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewVerificationUsecase(knownUserRepository(tt.user), &mockLinkCodec{}, &mockVerificationMailer{})
			got, err := uc.IsVerified(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got: %v", tt.want, got)
			}
		})
	}
}
