package usecase

import (
	"context"
	"log/slog"
	"time"

	"taskly_backend/internal/feature/tasks/domain/entity"
	"taskly_backend/internal/shared/validation"
)

const (
	// maxTitleLength はタイトルの最大文字数を定義します。
	maxTitleLength = 255

	// dueDateLayout はdue_dateの入力形式です。
	dueDateLayout = "2006-01-02"
)

// ListFilter は一覧取得の絞り込み・並び替え条件です。
type ListFilter struct {
	Status    string // "active" | "completed" | それ以外は全件
	Search    string // タイトルの部分一致（大文字小文字を区別しない）
	SortBy    string
	SortOrder string
}

// TaskRepository はタスクエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはコンシューマー（usecase）が定義します。
type TaskRepository interface {
	// List はオーナーのタスクを条件付きで取得します。オーナー情報も同時にロードします。
	List(ctx context.Context, ownerID uint, filter ListFilter) ([]entity.Task, error)

	// Create は新しいタスクを永続化します。
	Create(ctx context.Context, task *entity.Task) error

	// FindByID はIDでタスクを取得します。存在しない場合、ErrTaskNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*entity.Task, error)

	// Update は(id, ownerID)にスコープした1文で部分更新を行います。
	// 対象行がない場合、ErrTaskNotFoundを返します。
	Update(ctx context.Context, ownerID, id uint, changes map[string]any) (*entity.Task, error)

	// Delete は(id, ownerID)にスコープした1文で削除を行います。
	// 対象行がない場合、ErrTaskNotFoundを返します。
	Delete(ctx context.Context, ownerID, id uint) error
}

// StatsInvalidator はタスク書き込み後に集計キャッシュを無効化します。
type StatsInvalidator interface {
	// InvalidateOwner は指定オーナーのキャッシュ済み集計を破棄します。
	InvalidateOwner(ctx context.Context, ownerID uint) error
}

// CreateInput はタスク作成の入力値です。
type CreateInput struct {
	Title       string
	Description string
	DueDate     *string // "2006-01-02"形式、nilは期限なし
	Priority    string
}

// UpdateInput はタスク部分更新の入力値です。
// nilのフィールドは変更されません（sometimesセマンティクス）。
type UpdateInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Completed   *bool
	Priority    *string
}

// taskUsecase はタスクCRUDのビジネスロジックを実装します。
// 全操作はオーナーIDでスコープされ、他ユーザーのタスクには到達できません。
type taskUsecase struct {
	tasks TaskRepository
	stats StatsInvalidator
}

// NewTaskUsecase はtaskUsecaseの新しいインスタンスを生成します。
// statsはnil可（キャッシュ無効化なしで動作します）。
func NewTaskUsecase(tasks TaskRepository, stats StatsInvalidator) *taskUsecase {
	return &taskUsecase{tasks: tasks, stats: stats}
}

// sortableColumns は並び替えを許可するカラムのホワイトリストです。
var sortableColumns = map[string]bool{
	"title":      true,
	"due_date":   true,
	"priority":   true,
	"completed":  true,
	"created_at": true,
}

// List はオーナーのタスク一覧を返します。
// 不正なsort_by/sort_orderはエラーにせず、デフォルト（created_at desc）に黙って戻します。
func (u *taskUsecase) List(ctx context.Context, ownerID uint, filter ListFilter) ([]entity.Task, error) {
	if !sortableColumns[filter.SortBy] {
		filter.SortBy = "created_at"
	}
	if filter.SortOrder != "asc" && filter.SortOrder != "desc" {
		filter.SortOrder = "desc"
	}
	return u.tasks.List(ctx, ownerID, filter)
}

// parseDueDate はdue_date文字列を検証して*time.Timeへ変換します。
func parseDueDate(value string, errs *validation.Error) *time.Time {
	t, err := time.Parse(dueDateLayout, value)
	if err != nil {
		errs.Add("due_date", "The due date is not a valid date.")
		return nil
	}
	return &t
}

// Create は入力を検証してタスクを作成します。
func (u *taskUsecase) Create(ctx context.Context, ownerID uint, in CreateInput) (*entity.Task, error) {
	errs := validation.New()

	if in.Title == "" {
		errs.Add("title", "The title field is required.")
	} else if len(in.Title) > maxTitleLength {
		errs.Add("title", "The title may not be greater than 255 characters.")
	}
	if in.Priority == "" {
		errs.Add("priority", "The priority field is required.")
	} else if !entity.ValidPriority(in.Priority) {
		errs.Add("priority", "The selected priority is invalid.")
	}

	var dueDate *time.Time
	if in.DueDate != nil && *in.DueDate != "" {
		dueDate = parseDueDate(*in.DueDate, errs)
	}

	if errs.HasErrors() {
		return nil, errs
	}

	task := &entity.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     dueDate,
		Priority:    in.Priority,
	}
	if err := u.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	u.invalidateStats(ctx, ownerID)
	return task, nil
}

// Get はオーナー確認付きでタスクを1件取得します。
// 存在しない場合はErrTaskNotFound、他ユーザー所有の場合はErrForbiddenを返します。
func (u *taskUsecase) Get(ctx context.Context, ownerID, id uint) (*entity.Task, error) {
	task, err := u.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != ownerID {
		return nil, ErrForbidden
	}
	return task, nil
}

// Update は入力を検証してタスクを部分更新します。
// 認可チェック後の更新文も(id, ownerID)でスコープされるため、
// チェックと更新の間に削除が割り込んでも他人の行に触れることはありません。
func (u *taskUsecase) Update(ctx context.Context, ownerID, id uint, in UpdateInput) (*entity.Task, error) {
	if _, err := u.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}

	errs := validation.New()
	changes := map[string]any{}

	if in.Title != nil {
		switch {
		case *in.Title == "":
			errs.Add("title", "The title field is required.")
		case len(*in.Title) > maxTitleLength:
			errs.Add("title", "The title may not be greater than 255 characters.")
		default:
			changes["title"] = *in.Title
		}
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.DueDate != nil {
		if *in.DueDate == "" {
			changes["due_date"] = nil
		} else if t := parseDueDate(*in.DueDate, errs); t != nil {
			changes["due_date"] = *t
		}
	}
	if in.Completed != nil {
		changes["completed"] = *in.Completed
	}
	if in.Priority != nil {
		if !entity.ValidPriority(*in.Priority) {
			errs.Add("priority", "The selected priority is invalid.")
		} else {
			changes["priority"] = *in.Priority
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	if len(changes) == 0 {
		return u.Get(ctx, ownerID, id)
	}

	task, err := u.tasks.Update(ctx, ownerID, id, changes)
	if err != nil {
		return nil, err
	}
	u.invalidateStats(ctx, ownerID)
	return task, nil
}

// Delete はオーナー確認付きでタスクを削除します。
func (u *taskUsecase) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := u.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := u.tasks.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	u.invalidateStats(ctx, ownerID)
	return nil
}

// invalidateStats は集計キャッシュを破棄します。失敗してもリクエストは成功扱いです。
func (u *taskUsecase) invalidateStats(ctx context.Context, ownerID uint) {
	if u.stats == nil {
		return
	}
	if err := u.stats.InvalidateOwner(ctx, ownerID); err != nil {
		slog.Error("failed to invalidate stats cache", "error", err, "owner_id", ownerID)
	}
}
