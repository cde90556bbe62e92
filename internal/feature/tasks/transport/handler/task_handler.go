// Package handler はtasksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/feature/tasks/domain/entity"
	"taskly_backend/internal/feature/tasks/transport/http/dto"
	"taskly_backend/internal/feature/tasks/usecase"
	"taskly_backend/internal/platform/session"
	"taskly_backend/internal/shared/validation"
)

// TaskUsecase はタスクCRUDのユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type TaskUsecase interface {
	// List はオーナーのタスク一覧を条件付きで返します。
	List(ctx context.Context, ownerID uint, filter usecase.ListFilter) ([]entity.Task, error)
	// Create は入力を検証してタスクを作成します。
	Create(ctx context.Context, ownerID uint, in usecase.CreateInput) (*entity.Task, error)
	// Get はオーナー確認付きでタスクを1件取得します。
	Get(ctx context.Context, ownerID, id uint) (*entity.Task, error)
	// Update は入力を検証してタスクを部分更新します。
	Update(ctx context.Context, ownerID, id uint, in usecase.UpdateInput) (*entity.Task, error)
	// Delete はオーナー確認付きでタスクを削除します。
	Delete(ctx context.Context, ownerID, id uint) error
}

// TaskHandler はタスク操作のHTTPリクエストを処理します。
type TaskHandler struct {
	tasks TaskUsecase
}

// NewTaskHandler はTaskHandlerの新しいインスタンスを生成します。
func NewTaskHandler(tasks TaskUsecase) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// respondValidation は検証エラーをフィールド単位の422エンベロープで返します。
func respondValidation(c *gin.Context, err error) bool {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  verr.Fields,
	})
	return true
}

// respondTaskError はタスク取得系の共通エラーをHTTPステータスへ対応付けます。
func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found."})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
	default:
		slog.Error("task operation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// taskID はパスパラメーター:idをuintへ変換します。
func taskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found."})
		return 0, false
	}
	return uint(id), true
}

// List はタスク一覧APIエンドポイントを処理します。
// クエリパラメーターで絞り込み・並び替えを指定できます。不正な値は
// エラーにせずデフォルトに戻されます。
func (h *TaskHandler) List(c *gin.Context) {
	ownerID := c.GetUint(session.ContextUserID)
	tasks, err := h.tasks.List(c.Request.Context(), ownerID, usecase.ListFilter{
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	})
	if err != nil {
		slog.Error("failed to list tasks", "error", err, "owner_id", ownerID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create はタスク作成APIエンドポイントを処理します。
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("task create binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	ownerID := c.GetUint(session.ContextUserID)
	task, err := h.tasks.Create(c.Request.Context(), ownerID, usecase.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		slog.Error("failed to create task", "error", err, "owner_id", ownerID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	slog.Info("task created", "task_id", task.ID, "owner_id", ownerID)
	c.JSON(http.StatusCreated, task)
}

// Get はタスク1件取得APIエンドポイントを処理します。
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := h.tasks.Get(c.Request.Context(), c.GetUint(session.ContextUserID), id)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update はタスク部分更新APIエンドポイントを処理します。
// リクエストに含まれるフィールドのみが検証・更新されます。
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("task update binding failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	ownerID := c.GetUint(session.ContextUserID)
	task, err := h.tasks.Update(c.Request.Context(), ownerID, id, usecase.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Completed:   req.Completed,
		Priority:    req.Priority,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Delete はタスク削除APIエンドポイントを処理します。成功時は204を返します。
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	ownerID := c.GetUint(session.ContextUserID)
	if err := h.tasks.Delete(c.Request.Context(), ownerID, id); err != nil {
		respondTaskError(c, err)
		return
	}
	slog.Info("task deleted", "task_id", id, "owner_id", ownerID)
	c.Status(http.StatusNoContent)
}
