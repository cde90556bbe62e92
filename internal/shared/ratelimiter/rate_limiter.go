// Package ratelimiter は操作の頻度をキー単位で制限します。
package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultIdleTTL はアクセスのないリミッターを破棄するまでの時間です。
const defaultIdleTTL = 10 * time.Minute

// entry はキーごとのレートリミッターと最終アクセス時刻を保持します。
type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// KeyedLimiter は(ユーザー, 操作)のようなキー単位のレート制限を管理します。
// バックグラウンドで使われなくなったエントリを定期的に破棄します。
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	stopCh  chan struct{}
}

// NewKeyedLimiter は1分あたりperMinute回を上限とするKeyedLimiterを生成します。
// cleanupIntervalごとに期限切れエントリを掃除します。
func NewKeyedLimiter(perMinute int, cleanupInterval time.Duration) *KeyedLimiter {
	l := &KeyedLimiter{
		entries: map[string]*entry{},
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop(cleanupInterval)
	return l
}

// Allow はキーに対するリクエストを許可するかを返します。待機はしません。
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = time.Now()
	return e.limiter.Allow()
}

// Stop はクリーンアップゴルーチンを停止します。
func (l *KeyedLimiter) Stop() {
	close(l.stopCh)
}

// cleanupLoop は一定間隔でアイドル状態のエントリを削除します。
func (l *KeyedLimiter) cleanupLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-defaultIdleTTL)
			l.mu.Lock()
			for key, e := range l.entries {
				if e.lastAccess.Before(cutoff) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}
