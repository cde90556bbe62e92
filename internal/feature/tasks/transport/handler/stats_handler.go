package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/feature/tasks/usecase"
	"taskly_backend/internal/platform/session"
)

// StatsUsecase はダッシュボード集計のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type StatsUsecase interface {
	// StatusCounts は本日を基準にしたステータス件数を返します。
	StatusCounts(ctx context.Context, ownerID uint) (usecase.StatusCounts, error)
	// PriorityCounts はLow/Medium/Highの固定順で3行を返します。
	PriorityCounts(ctx context.Context, ownerID uint) ([]usecase.PriorityCount, error)
	// MonthlyTrend は1月〜12月の12行を返します。
	MonthlyTrend(ctx context.Context, ownerID uint) ([]usecase.MonthlyTrendRow, error)
	// Productivity は完了率・目標・評価ラベルを返します。
	Productivity(ctx context.Context, ownerID uint) (usecase.ProductivityStats, error)
}

// StatsHandler はダッシュボード集計のHTTPリクエストを処理します。
type StatsHandler struct {
	stats StatsUsecase
}

// NewStatsHandler はStatsHandlerの新しいインスタンスを生成します。
func NewStatsHandler(stats StatsUsecase) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// respondStats は集計結果またはエラーを共通形式で返します。
func respondStats(c *gin.Context, data any, err error, operation string) {
	if err != nil {
		slog.Error("failed to compute task stats", "error", err, "operation", operation)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// StatusCounts はcompleted/pending/overdueの件数を返します。
func (h *StatsHandler) StatusCounts(c *gin.Context) {
	data, err := h.stats.StatusCounts(c.Request.Context(), c.GetUint(session.ContextUserID))
	respondStats(c, data, err, "status-counts")
}

// PriorityCounts は優先度ごとの件数を返します。
func (h *StatsHandler) PriorityCounts(c *gin.Context) {
	data, err := h.stats.PriorityCounts(c.Request.Context(), c.GetUint(session.ContextUserID))
	respondStats(c, data, err, "priority-counts")
}

// BarChart は月別の作成数・完了数を返します。
func (h *StatsHandler) BarChart(c *gin.Context) {
	data, err := h.stats.MonthlyTrend(c.Request.Context(), c.GetUint(session.ContextUserID))
	respondStats(c, data, err, "bar-chart")
}

// Productivity はダッシュボードの生産性カードのデータを返します。
func (h *StatsHandler) Productivity(c *gin.Context) {
	data, err := h.stats.Productivity(c.Request.Context(), c.GetUint(session.ContextUserID))
	respondStats(c, data, err, "productivity")
}
