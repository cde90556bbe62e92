package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"taskly_backend/internal/feature/tasks/domain/entity"
)

// ProductivityTarget はダッシュボードの生産性目標値（%）です。
const ProductivityTarget = 85

// StatusCounts is the completed/pending/overdue partition of an owner's tasks.
// The three buckets are disjoint and always sum to the owner's task count.
type StatusCounts struct {
	Completed int64 `json:"Completed"`
	Pending   int64 `json:"Pending"`
	Overdue   int64 `json:"Overdue"`
}

// PriorityCount is one row of the per-priority aggregation.
type PriorityCount struct {
	Priority string `json:"priority"`
	Total    int64  `json:"total"`
}

// MonthlyTrendRow is one calendar-month bucket of the created/completed trend.
type MonthlyTrendRow struct {
	Month     string `json:"month"`
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

// MonthlyCounts is the raw month-number-keyed aggregation the trend is built from.
type MonthlyCounts struct {
	Created   map[int]int64 `json:"created"`
	Completed map[int]int64 `json:"completed"`
}

// CompletionTotals is the raw input for the productivity computation.
type CompletionTotals struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// ProductivityStats is the dashboard productivity card payload.
type ProductivityStats struct {
	Productivity   int    `json:"productivity"`
	Target         int    `json:"target"`
	Status         string `json:"status"`
	Remaining      string `json:"remaining"`
	TodayCompleted int64  `json:"todayCompleted"`
	TodayTotal     int64  `json:"todayTotal"`
}

// StatsRepository は集計クエリの読み取り層を抽象化します。
// キャッシュデコレーターがこのインターフェースを透過的にラップします。
type StatsRepository interface {
	// StatusCounts はtodayを基準にしたcompleted/pending/overdueの件数を返します。
	StatusCounts(ctx context.Context, ownerID uint, today time.Time) (StatusCounts, error)

	// PriorityCounts は優先度ごとの件数を返します。0件の優先度は含まれません。
	PriorityCounts(ctx context.Context, ownerID uint) ([]PriorityCount, error)

	// MonthlyCounts は作成月（1〜12）ごとの作成数・完了数を返します。
	// 年は区別せず、全期間のデータが同じ12バケツに集約されます。
	MonthlyCounts(ctx context.Context, ownerID uint) (MonthlyCounts, error)

	// CompletionTotals は全タスク数と完了タスク数を返します。
	CompletionTotals(ctx context.Context, ownerID uint) (CompletionTotals, error)
}

// statsUsecase はダッシュボード集計のビジネスロジックを実装します。
type statsUsecase struct {
	stats StatsRepository
	now   func() time.Time
}

// NewStatsUsecase はstatsUsecaseの新しいインスタンスを生成します。
func NewStatsUsecase(stats StatsRepository) *statsUsecase {
	return &statsUsecase{stats: stats, now: time.Now}
}

// StatusCounts は本日を基準にしたステータス件数を返します。
// 期限日はUTCの日付として保存されるため、本日もUTCで切り捨てます。
func (u *statsUsecase) StatusCounts(ctx context.Context, ownerID uint) (StatusCounts, error) {
	now := u.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return u.stats.StatusCounts(ctx, ownerID, today)
}

// PriorityCounts はLow/Medium/Highの固定順で必ず3行を返します。
// データのない優先度も total=0 で補完されます。
func (u *statsUsecase) PriorityCounts(ctx context.Context, ownerID uint) ([]PriorityCount, error) {
	raw, err := u.stats.PriorityCounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	totals := map[string]int64{}
	for _, row := range raw {
		totals[row.Priority] = row.Total
	}

	result := make([]PriorityCount, 0, len(entity.Priorities))
	for _, p := range entity.Priorities {
		result = append(result, PriorityCount{Priority: p, Total: totals[p]})
	}
	return result, nil
}

// monthNames は1始まりの月番号に対応する表示名です。
var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlyTrend は1月〜12月の12行を必ず返します。データのない月は0埋めされます。
// completedは「その月に作成され、現在完了状態のタスク」の数です（完了した月ではない）。
func (u *statsUsecase) MonthlyTrend(ctx context.Context, ownerID uint) ([]MonthlyTrendRow, error) {
	counts, err := u.stats.MonthlyCounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := make([]MonthlyTrendRow, 0, 12)
	for m := 1; m <= 12; m++ {
		result = append(result, MonthlyTrendRow{
			Month:     monthNames[m-1],
			Created:   counts.Created[m],
			Completed: counts.Completed[m],
		})
	}
	return result, nil
}

// Productivity は完了率・目標・評価ラベル・残りメッセージを返します。
// タスクが0件のときは0%（ゼロ除算回避）。todayCompleted/todayTotalは
// 全期間の件数をそのまま反映します。
func (u *statsUsecase) Productivity(ctx context.Context, ownerID uint) (ProductivityStats, error) {
	totals, err := u.stats.CompletionTotals(ctx, ownerID)
	if err != nil {
		return ProductivityStats{}, err
	}

	productivity := 0
	if totals.Total > 0 {
		productivity = int(math.Round(float64(totals.Completed) / float64(totals.Total) * 100))
	}

	var status string
	switch {
	case productivity >= ProductivityTarget:
		status = "Excellent"
	case productivity >= 70:
		status = "Very Good"
	case productivity >= 50:
		status = "Good"
	default:
		status = "Needs Improvement"
	}

	remaining := "Target achieved! 🎯"
	if productivity < ProductivityTarget {
		remaining = fmt.Sprintf("%d%% to target", ProductivityTarget-productivity)
	}

	return ProductivityStats{
		Productivity:   productivity,
		Target:         ProductivityTarget,
		Status:         status,
		Remaining:      remaining,
		TodayCompleted: totals.Completed,
		TodayTotal:     totals.Total,
	}, nil
}
