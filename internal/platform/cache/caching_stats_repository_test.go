package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"taskly_backend/internal/feature/tasks/usecase"
)

// mockStatsRepository はテスト用のStatsRepositoryモック実装です。
type mockStatsRepository struct {
	statusFn   func(ctx context.Context, ownerID uint, today time.Time) (usecase.StatusCounts, error)
	priorityFn func(ctx context.Context, ownerID uint) ([]usecase.PriorityCount, error)
	monthlyFn  func(ctx context.Context, ownerID uint) (usecase.MonthlyCounts, error)
	totalsFn   func(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error)
	calls      int
}

func (m *mockStatsRepository) StatusCounts(ctx context.Context, ownerID uint, today time.Time) (usecase.StatusCounts, error) {
	m.calls++
	if m.statusFn != nil {
		return m.statusFn(ctx, ownerID, today)
	}
	return usecase.StatusCounts{}, nil
}

func (m *mockStatsRepository) PriorityCounts(ctx context.Context, ownerID uint) ([]usecase.PriorityCount, error) {
	m.calls++
	if m.priorityFn != nil {
		return m.priorityFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockStatsRepository) MonthlyCounts(ctx context.Context, ownerID uint) (usecase.MonthlyCounts, error) {
	m.calls++
	if m.monthlyFn != nil {
		return m.monthlyFn(ctx, ownerID)
	}
	return usecase.MonthlyCounts{}, nil
}

func (m *mockStatsRepository) CompletionTotals(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error) {
	m.calls++
	if m.totalsFn != nil {
		return m.totalsFn(ctx, ownerID)
	}
	return usecase.CompletionTotals{}, nil
}

// TestNewCachingStatsRepository_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewCachingStatsRepository_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{
			name:              "default values when zero/empty",
			ttl:               0,
			namespace:         "",
			expectedTTL:       5 * time.Minute,
			expectedNamespace: "stats",
		},
		{
			name:              "custom values preserved",
			ttl:               10 * time.Minute,
			namespace:         "custom",
			expectedTTL:       10 * time.Minute,
			expectedNamespace: "custom",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewCachingStatsRepository(nil, tt.ttl, &mockStatsRepository{}, tt.namespace)

			if repo.ttl != tt.expectedTTL {
				t.Errorf("expected TTL %v, got %v", tt.expectedTTL, repo.ttl)
			}
			if repo.namespace != tt.expectedNamespace {
				t.Errorf("expected namespace %q, got %q", tt.expectedNamespace, repo.namespace)
			}
		})
	}
}

// TestCachingStatsRepository_NilRedis はRedisがnilの場合にキャッシュをバイパスして内部リポジトリを直接呼び出すことを検証します。
func TestCachingStatsRepository_NilRedis(t *testing.T) {
	t.Parallel()

	inner := &mockStatsRepository{
		totalsFn: func(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error) {
			return usecase.CompletionTotals{Total: 4, Completed: 2}, nil
		},
	}
	repo := NewCachingStatsRepository(nil, 5*time.Minute, inner, "stats")

	totals, err := repo.CompletionTotals(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Total != 4 || totals.Completed != 2 {
		t.Errorf("unexpected totals: %+v", totals)
	}
	if inner.calls != 1 {
		t.Errorf("inner repository should be hit directly, calls=%d", inner.calls)
	}
}

// TestCachingStatsRepository_CacheHit はキャッシュヒット時にRedisからデータを返し、内部リポジトリを呼ばないことを検証します。
func TestCachingStatsRepository_CacheHit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	cached := usecase.CompletionTotals{Total: 10, Completed: 7}
	payload, _ := json.Marshal(cached)
	mock.ExpectGet("stats:1:totals").SetVal(string(payload))

	inner := &mockStatsRepository{}
	repo := NewCachingStatsRepository(rdb, 5*time.Minute, inner, "stats")

	totals, err := repo.CompletionTotals(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals != cached {
		t.Errorf("expected cached totals %+v, got: %+v", cached, totals)
	}
	if inner.calls != 0 {
		t.Errorf("inner repository must not be called on cache hit, calls=%d", inner.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

// TestCachingStatsRepository_CacheMiss はキャッシュミス時に内部リポジトリへフォールバックし、結果をTTL付きで保存することを検証します。
func TestCachingStatsRepository_CacheMiss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	fresh := usecase.CompletionTotals{Total: 3, Completed: 1}
	payload, _ := json.Marshal(fresh)

	mock.ExpectGet("stats:1:totals").RedisNil()
	mock.ExpectSet("stats:1:totals", payload, 5*time.Minute).SetVal("OK")

	inner := &mockStatsRepository{
		totalsFn: func(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error) {
			return fresh, nil
		},
	}
	repo := NewCachingStatsRepository(rdb, 5*time.Minute, inner, "stats")

	totals, err := repo.CompletionTotals(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals != fresh {
		t.Errorf("expected fresh totals %+v, got: %+v", fresh, totals)
	}
	if inner.calls != 1 {
		t.Errorf("inner repository should be hit once, calls=%d", inner.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

// TestCachingStatsRepository_StatusKeyCarriesDate はステータスキーに日付が含まれ、日付をまたいだキャッシュ再利用が起きないことを検証します。
func TestCachingStatsRepository_StatusKeyCarriesDate(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	counts := usecase.StatusCounts{Completed: 1, Pending: 2, Overdue: 3}
	payload, _ := json.Marshal(counts)

	mock.ExpectGet("stats:1:status:2026-09-01").RedisNil()
	mock.ExpectSet("stats:1:status:2026-09-01", payload, 5*time.Minute).SetVal("OK")

	inner := &mockStatsRepository{
		statusFn: func(ctx context.Context, ownerID uint, today time.Time) (usecase.StatusCounts, error) {
			return counts, nil
		},
	}
	repo := NewCachingStatsRepository(rdb, 5*time.Minute, inner, "stats")

	if _, err := repo.StatusCounts(context.Background(), 1, today); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

// TestCachingStatsRepository_InnerError は内部リポジトリのエラーがそのまま伝播することを検証します。
func TestCachingStatsRepository_InnerError(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("stats:1:totals").RedisNil()

	dbErr := errors.New("db down")
	inner := &mockStatsRepository{
		totalsFn: func(ctx context.Context, ownerID uint) (usecase.CompletionTotals, error) {
			return usecase.CompletionTotals{}, dbErr
		},
	}
	repo := NewCachingStatsRepository(rdb, 5*time.Minute, inner, "stats")

	if _, err := repo.CompletionTotals(context.Background(), 1); !errors.Is(err, dbErr) {
		t.Errorf("expected db error to propagate, got: %v", err)
	}
}

// TestCachingStatsRepository_InvalidateOwner はSCANで見つかったオーナーのキーだけが削除されることを検証します。
func TestCachingStatsRepository_InvalidateOwner(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	keys := []string{"stats:1:totals", "stats:1:priority"}
	mock.ExpectScan(0, "stats:1:*", 200).SetVal(keys, 0)
	mock.ExpectDel(keys...).SetVal(2)

	repo := NewCachingStatsRepository(rdb, 5*time.Minute, &mockStatsRepository{}, "stats")

	if err := repo.InvalidateOwner(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet redis expectations: %v", err)
	}
}

// TestCachingStatsRepository_InvalidateOwner_NilRedis はRedisなしでの無効化が安全なno-opであることを検証します。
func TestCachingStatsRepository_InvalidateOwner_NilRedis(t *testing.T) {
	t.Parallel()

	repo := NewCachingStatsRepository(nil, 5*time.Minute, &mockStatsRepository{}, "stats")
	if err := repo.InvalidateOwner(context.Background(), 1); err != nil {
		t.Errorf("nil redis must be a no-op, got: %v", err)
	}
}
