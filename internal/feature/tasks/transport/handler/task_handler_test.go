package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskly_backend/internal/feature/tasks/domain/entity"
	"taskly_backend/internal/feature/tasks/usecase"
	"taskly_backend/internal/platform/session"
	"taskly_backend/internal/shared/validation"
)

// mockTaskUsecase はテスト用のTaskUsecaseモック実装です。
type mockTaskUsecase struct {
	ListFunc   func(ctx context.Context, ownerID uint, filter usecase.ListFilter) ([]entity.Task, error)
	CreateFunc func(ctx context.Context, ownerID uint, in usecase.CreateInput) (*entity.Task, error)
	GetFunc    func(ctx context.Context, ownerID, id uint) (*entity.Task, error)
	UpdateFunc func(ctx context.Context, ownerID, id uint, in usecase.UpdateInput) (*entity.Task, error)
	DeleteFunc func(ctx context.Context, ownerID, id uint) error
}

func (m *mockTaskUsecase) List(ctx context.Context, ownerID uint, filter usecase.ListFilter) ([]entity.Task, error) {
	return m.ListFunc(ctx, ownerID, filter)
}

func (m *mockTaskUsecase) Create(ctx context.Context, ownerID uint, in usecase.CreateInput) (*entity.Task, error) {
	return m.CreateFunc(ctx, ownerID, in)
}

func (m *mockTaskUsecase) Get(ctx context.Context, ownerID, id uint) (*entity.Task, error) {
	return m.GetFunc(ctx, ownerID, id)
}

func (m *mockTaskUsecase) Update(ctx context.Context, ownerID, id uint, in usecase.UpdateInput) (*entity.Task, error) {
	return m.UpdateFunc(ctx, ownerID, id, in)
}

func (m *mockTaskUsecase) Delete(ctx context.Context, ownerID, id uint) error {
	return m.DeleteFunc(ctx, ownerID, id)
}

// asUser はセッションミドルウェアの代わりにユーザーIDをコンテキストへ積みます。
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) { c.Set(session.ContextUserID, userID) }
}

func newTaskRouter(uc TaskUsecase, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTaskHandler(uc)
	r := gin.New()
	g := r.Group("/tasks", asUser(userID))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return r
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_List(t *testing.T) {
	t.Run("query parameters flow into the filter", func(t *testing.T) {
		var gotFilter usecase.ListFilter
		uc := &mockTaskUsecase{
			ListFunc: func(ctx context.Context, ownerID uint, filter usecase.ListFilter) ([]entity.Task, error) {
				assert.Equal(t, uint(42), ownerID)
				gotFilter = filter
				return []entity.Task{{ID: 1, Title: "Write report"}}, nil
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodGet, "/tasks?status=pending&search=report&sort_by=due_date&sort_order=asc", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, usecase.ListFilter{
			Status:    "pending",
			Search:    "report",
			SortBy:    "due_date",
			SortOrder: "asc",
		}, gotFilter)

		var tasks []entity.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write report", tasks[0].Title)
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		uc := &mockTaskUsecase{
			ListFunc: func(ctx context.Context, ownerID uint, filter usecase.ListFilter) ([]entity.Task, error) {
				return []entity.Task{}, nil
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodGet, "/tasks", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})
}

func TestTaskHandler_Create(t *testing.T) {
	t.Run("valid input returns 201 with the created task", func(t *testing.T) {
		uc := &mockTaskUsecase{
			CreateFunc: func(ctx context.Context, ownerID uint, in usecase.CreateInput) (*entity.Task, error) {
				assert.Equal(t, uint(42), ownerID)
				assert.Equal(t, "Write report", in.Title)
				require.NotNil(t, in.DueDate)
				assert.Equal(t, "2026-09-15", *in.DueDate)
				return &entity.Task{ID: 9, UserID: ownerID, Title: in.Title, Priority: in.Priority}, nil
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodPost, "/tasks", gin.H{
			"title":    "Write report",
			"due_date": "2026-09-15",
			"priority": "High",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var got entity.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, uint(9), got.ID)
		assert.Equal(t, "High", got.Priority)
	})

	t.Run("validation failure returns field errors", func(t *testing.T) {
		verr := validation.New()
		verr.Add("title", "The title field is required.")
		uc := &mockTaskUsecase{
			CreateFunc: func(ctx context.Context, ownerID uint, in usecase.CreateInput) (*entity.Task, error) {
				return nil, verr
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodPost, "/tasks", gin.H{"title": ""})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{
			"message": "The given data was invalid.",
			"errors": {"title": ["The title field is required."]}
		}`, w.Body.String())
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		uc := &mockTaskUsecase{
			CreateFunc: func(ctx context.Context, ownerID uint, in usecase.CreateInput) (*entity.Task, error) {
				t.Fatal("usecase must not be called for malformed input")
				return nil, nil
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodPost, "/tasks", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"invalid request"}`, w.Body.String())
	})
}

func TestTaskHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		getErr         error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing task returns 404",
			path:           "/tasks/99",
			getErr:         usecase.ErrTaskNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"message":"Task not found."}`,
		},
		{
			name:           "someone else's task returns 403",
			path:           "/tasks/5",
			getErr:         usecase.ErrForbidden,
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"message":"This action is unauthorized."}`,
		},
		{
			name:           "non-numeric id is treated as missing",
			path:           "/tasks/abc",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"message":"Task not found."}`,
		},
		{
			name:           "unexpected failure returns 500",
			path:           "/tasks/5",
			getErr:         errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"message":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockTaskUsecase{
				GetFunc: func(ctx context.Context, ownerID, id uint) (*entity.Task, error) {
					return nil, tt.getErr
				},
			}
			r := newTaskRouter(uc, 42)

			w := performJSON(t, r, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestTaskHandler_Get_Success(t *testing.T) {
	uc := &mockTaskUsecase{
		GetFunc: func(ctx context.Context, ownerID, id uint) (*entity.Task, error) {
			assert.Equal(t, uint(42), ownerID)
			assert.Equal(t, uint(5), id)
			return &entity.Task{ID: 5, UserID: 42, Title: "Write report"}, nil
		},
	}
	r := newTaskRouter(uc, 42)

	w := performJSON(t, r, http.MethodGet, "/tasks/5", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint(5), got.ID)
}

func TestTaskHandler_Update(t *testing.T) {
	t.Run("only the provided fields reach the usecase", func(t *testing.T) {
		uc := &mockTaskUsecase{
			UpdateFunc: func(ctx context.Context, ownerID, id uint, in usecase.UpdateInput) (*entity.Task, error) {
				require.NotNil(t, in.Completed)
				assert.True(t, *in.Completed)
				assert.Nil(t, in.Title, "absent fields must stay nil")
				assert.Nil(t, in.DueDate)
				return &entity.Task{ID: id, UserID: ownerID, Title: "Write report", Completed: true}, nil
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodPut, "/tasks/5", gin.H{"completed": true})

		assert.Equal(t, http.StatusOK, w.Code)

		var got entity.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.Completed)
	})

	t.Run("cross-owner update returns 403", func(t *testing.T) {
		uc := &mockTaskUsecase{
			UpdateFunc: func(ctx context.Context, ownerID, id uint, in usecase.UpdateInput) (*entity.Task, error) {
				return nil, usecase.ErrForbidden
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodPut, "/tasks/5", gin.H{"completed": true})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"message":"This action is unauthorized."}`, w.Body.String())
	})

	t.Run("validation failure returns field errors", func(t *testing.T) {
		verr := validation.New()
		verr.Add("priority", "The selected priority is invalid.")
		uc := &mockTaskUsecase{
			UpdateFunc: func(ctx context.Context, ownerID, id uint, in usecase.UpdateInput) (*entity.Task, error) {
				return nil, verr
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodPut, "/tasks/5", gin.H{"priority": "Urgent"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{
			"message": "The given data was invalid.",
			"errors": {"priority": ["The selected priority is invalid."]}
		}`, w.Body.String())
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	t.Run("successful delete returns 204 with no body", func(t *testing.T) {
		var deleted uint
		uc := &mockTaskUsecase{
			DeleteFunc: func(ctx context.Context, ownerID, id uint) error {
				assert.Equal(t, uint(42), ownerID)
				deleted = id
				return nil
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodDelete, "/tasks/5", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, uint(5), deleted)
	})

	t.Run("missing task returns 404", func(t *testing.T) {
		uc := &mockTaskUsecase{
			DeleteFunc: func(ctx context.Context, ownerID, id uint) error {
				return usecase.ErrTaskNotFound
			},
		}
		r := newTaskRouter(uc, 42)

		w := performJSON(t, r, http.MethodDelete, "/tasks/99", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Task not found."}`, w.Body.String())
	})
}
