package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskly_backend/internal/feature/auth/domain/entity"
	"taskly_backend/internal/feature/auth/usecase"
)

// resetTokenPostgres はResetTokenRepositoryインターフェースのGORM実装です。
type resetTokenPostgres struct {
	db *gorm.DB
}

// resetTokenPostgresがResetTokenRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.ResetTokenRepository = (*resetTokenPostgres)(nil)

// NewResetTokenPostgres は指定されたgorm.DB接続でresetTokenPostgresの新しいインスタンスを生成します。
func NewResetTokenPostgres(db *gorm.DB) *resetTokenPostgres {
	return &resetTokenPostgres{db: db}
}

// Upsert はトークン行を保存します。
// emailが主キーのため、既存行は新しいハッシュと発行時刻で置き換えられます。
func (r *resetTokenPostgres) Upsert(ctx context.Context, token *entity.PasswordResetToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "created_at"}),
		}).
		Create(token).Error
}

// FindByEmail はメールアドレスでトークン行を取得します。
// 行が存在しない場合、usecase.ErrResetTokenInvalidを返します（fail closed）。
func (r *resetTokenPostgres) FindByEmail(ctx context.Context, email string) (*entity.PasswordResetToken, error) {
	var token entity.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrResetTokenInvalid
		}
		return nil, err
	}
	return &token, nil
}

// DeleteByEmail はメールアドレスのトークン行を削除します。
func (r *resetTokenPostgres) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&entity.PasswordResetToken{}).Error
}

// Consume はトークン消費とパスワード更新を1トランザクションで実行します。
// 削除は(email, 保存済みハッシュ)でスコープされるため、並行するリセット試行の
// どちらか一方しか成功しません。削除が0行ならロールバックします。
func (r *resetTokenPostgres) Consume(ctx context.Context, email, tokenHash, newPasswordHash, rememberToken string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("email = ? AND token = ?", email, tokenHash).
			Delete(&entity.PasswordResetToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 別のリクエストが先に消費した（read-then-delete競合）
			return usecase.ErrResetTokenInvalid
		}

		res = tx.Model(&entity.User{}).
			Where("email = ?", email).
			Updates(map[string]any{
				"password":       newPasswordHash,
				"remember_token": rememberToken,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrUserNotFound
		}
		return nil
	})
}

// DeleteOlderThan はcutoffより古いトークン行を一括削除し、削除件数を返します。
func (r *resetTokenPostgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&entity.PasswordResetToken{})
	return res.RowsAffected, res.Error
}
