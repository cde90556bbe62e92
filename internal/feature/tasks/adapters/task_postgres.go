// Package adapters はtasksフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskly_backend/internal/feature/tasks/domain/entity"
	"taskly_backend/internal/feature/tasks/usecase"
)

// taskPostgres はTaskRepositoryインターフェースのGORM実装です。
type taskPostgres struct {
	db *gorm.DB
}

// taskPostgresがTaskRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.TaskRepository = (*taskPostgres)(nil)

// NewTaskPostgres は指定されたgorm.DB接続でtaskPostgresの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewTaskPostgres(db *gorm.DB) *taskPostgres {
	return &taskPostgres{db: db}
}

// List はオーナーのタスクを絞り込み・並び替え付きで取得します。
// N+1を避けるためオーナー情報をPreloadします。
func (r *taskPostgres) List(ctx context.Context, ownerID uint, filter usecase.ListFilter) ([]entity.Task, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Preload("User")

	switch filter.Status {
	case "active":
		query = query.Where("completed = ?", false)
	case "completed":
		query = query.Where("completed = ?", true)
	}

	if filter.Search != "" {
		// LOWER同士の比較でSQLite/PostgreSQL双方で大文字小文字を無視する
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ?", pattern)
	}

	// SortBy/SortOrderはusecase側でホワイトリスト検証済み
	query = query.Order(fmt.Sprintf("%s %s", filter.SortBy, strings.ToUpper(filter.SortOrder)))

	var tasks []entity.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create はタスクをデータベースに追加します。
func (r *taskPostgres) Create(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID はIDでタスクを取得します。
// タスクが存在しない場合、usecase.ErrTaskNotFoundを返します。
func (r *taskPostgres) FindByID(ctx context.Context, id uint) (*entity.Task, error) {
	var task entity.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// Update は(id, ownerID)にスコープした1文で部分更新し、更新後の行を返します。
// WHERE句にオーナーIDを含めることで、認可チェックと更新の間の競合でも
// 他ユーザーの行が書き換わることはありません。
func (r *taskPostgres) Update(ctx context.Context, ownerID, id uint, changes map[string]any) (*entity.Task, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, usecase.ErrTaskNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete は(id, ownerID)にスコープした1文で削除します。
func (r *taskPostgres) Delete(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&entity.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrTaskNotFound
	}
	return nil
}
