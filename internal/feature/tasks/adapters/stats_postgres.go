package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskly_backend/internal/feature/tasks/domain/entity"
	"taskly_backend/internal/feature/tasks/usecase"
)

// statsPostgres はStatsRepositoryインターフェースのGORM実装です。
// ダッシュボード用の集計クエリのみを持ちます。
type statsPostgres struct {
	db *gorm.DB
}

// statsPostgresがStatsRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.StatsRepository = (*statsPostgres)(nil)

// NewStatsPostgres は指定されたgorm.DB接続でstatsPostgresの新しいインスタンスを生成します。
func NewStatsPostgres(db *gorm.DB) *statsPostgres {
	return &statsPostgres{db: db}
}

// StatusCounts はcompleted/pending/overdueの件数を返します。
// 3つの条件は排他的で、合計は必ずオーナーの全タスク数に一致します。
func (r *statsPostgres) StatusCounts(ctx context.Context, ownerID uint, today time.Time) (usecase.StatusCounts, error) {
	var counts usecase.StatusCounts
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entity.Task{}).Where("user_id = ?", ownerID)
	}

	if err := base().
		Where("completed = ?", true).
		Count(&counts.Completed).Error; err != nil {
		return usecase.StatusCounts{}, err
	}

	if err := base().
		Where("completed = ? AND due_date IS NOT NULL AND due_date < ?", false, today).
		Count(&counts.Overdue).Error; err != nil {
		return usecase.StatusCounts{}, err
	}

	if err := base().
		Where("completed = ? AND (due_date IS NULL OR due_date >= ?)", false, today).
		Count(&counts.Pending).Error; err != nil {
		return usecase.StatusCounts{}, err
	}

	return counts, nil
}

// PriorityCounts は優先度ごとの件数をGROUP BYで返します。
// 0件の優先度の補完はusecase側で行います。
func (r *statsPostgres) PriorityCounts(ctx context.Context, ownerID uint) ([]usecase.PriorityCount, error) {
	var rows []usecase.PriorityCount
	if err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Select("priority, COUNT(*) as total").
		Where("user_id = ?", ownerID).
		Group("priority").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// monthExpr は作成月（1〜12）を取り出すSQL式をダイアレクトごとに返します。
// テストはSQLite、本番はPostgreSQLで動くため両対応が必要です。
func (r *statsPostgres) monthExpr() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%m', created_at) AS INTEGER)"
	}
	return "EXTRACT(MONTH FROM created_at)::int"
}

// monthCountRow は月別集計のスキャン先です。
type monthCountRow struct {
	Month int
	Total int64
}

// MonthlyCounts は作成月ごとの作成数と完了数を返します。
// 年では絞り込まないため、複数年のデータは同じ月バケツに集約されます。
func (r *statsPostgres) MonthlyCounts(ctx context.Context, ownerID uint) (usecase.MonthlyCounts, error) {
	expr := r.monthExpr()
	counts := usecase.MonthlyCounts{
		Created:   map[int]int64{},
		Completed: map[int]int64{},
	}

	var created []monthCountRow
	if err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Select(expr + " as month, COUNT(*) as total").
		Where("user_id = ?", ownerID).
		Group("month").
		Scan(&created).Error; err != nil {
		return usecase.MonthlyCounts{}, err
	}
	for _, row := range created {
		counts.Created[row.Month] = row.Total
	}

	var completed []monthCountRow
	if err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Select(expr+" as month, COUNT(*) as total").
		Where("user_id = ? AND completed = ?", ownerID, true).
		Group("month").
		Scan(&completed).Error; err != nil {
		return usecase.MonthlyCounts{}, err
	}
	for _, row := range completed {
		counts.Completed[row.Month] = row.Total
	}

	return counts, nil
}

// CompletionTotals は全タスク数と完了タスク数を返します。
func (r *statsPostgres) CompletionTotals(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error) {
	var totals usecase.CompletionTotals

	if err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Where("user_id = ?", ownerID).
		Count(&totals.Total).Error; err != nil {
		return usecase.CompletionTotals{}, err
	}

	if err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Where("user_id = ? AND completed = ?", ownerID, true).
		Count(&totals.Completed).Error; err != nil {
		return usecase.CompletionTotals{}, err
	}

	return totals, nil
}
