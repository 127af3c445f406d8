package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cm, _ := newTestCache(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := cm.Leaderboard.Set(ctx, "all", payload{Name: "Alice", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := cm.Leaderboard.Get(ctx, "all", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Alice" || got.Count != 3 {
		t.Errorf("Unexpected cached value: %+v", got)
	}

	t.Run("miss returns ErrCacheNotFound", func(t *testing.T) {
		var got payload
		if err := cm.Leaderboard.Get(ctx, "missing", &got); err != ErrCacheNotFound {
			t.Errorf("Expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("prefixes keep helpers isolated", func(t *testing.T) {
		var got payload
		if err := cm.Stats.Get(ctx, "all", &got); err != ErrCacheNotFound {
			t.Errorf("Expected a miss from a different helper, got %v", err)
		}
	})
}

func TestCacheHelper_TTL(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestCache(t)

	if err := cm.Verify.Set(ctx, "cert:C-1", "ok", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var got string
	if err := cm.Verify.Get(ctx, "cert:C-1", &got); err != ErrCacheNotFound {
		t.Errorf("Expected the entry to expire, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	ctx := context.Background()
	cm, _ := newTestCache(t)

	t.Run("miss calls the fetch function", func(t *testing.T) {
		calls := 0
		var got int
		err := cm.Fast.CacheOrExecute(ctx, "answer", &got, time.Minute, func() (interface{}, error) {
			calls++
			return 42, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if got != 42 || calls != 1 {
			t.Errorf("Expected one fetch returning 42, got %d after %d calls", got, calls)
		}
	})

	t.Run("hit skips the fetch function", func(t *testing.T) {
		if err := cm.Fast.Set(ctx, "cached", 7, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		var got int
		err := cm.Fast.CacheOrExecute(ctx, "cached", &got, time.Minute, func() (interface{}, error) {
			t.Error("Fetch function must not run on a cache hit")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if got != 7 {
			t.Errorf("Expected cached 7, got %d", got)
		}
	})

	t.Run("fetch errors keep their identity", func(t *testing.T) {
		sentinel := errors.New("chain down")
		var got int
		err := cm.Fast.CacheOrExecute(ctx, "broken", &got, time.Minute, func() (interface{}, error) {
			return nil, sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("Expected wrapped sentinel, got %v", err)
		}
	})
}

func TestCacheManager_InvalidateRankings(t *testing.T) {
	ctx := context.Background()
	cm, _ := newTestCache(t)

	if err := cm.Leaderboard.Set(ctx, "all", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cm.Leaderboard.Set(ctx, "dept:Physics", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cm.Stats.Set(ctx, "platform", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cm.Verify.Set(ctx, "cert:C-1", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	InvalidateRankings(ctx, cm)

	var got string
	if err := cm.Leaderboard.Get(ctx, "all", &got); err != ErrCacheNotFound {
		t.Errorf("Expected leaderboard cache cleared, got %v", err)
	}
	if err := cm.Leaderboard.Get(ctx, "dept:Physics", &got); err != ErrCacheNotFound {
		t.Errorf("Expected department cache cleared, got %v", err)
	}
	if err := cm.Stats.Get(ctx, "platform", &got); err != ErrCacheNotFound {
		t.Errorf("Expected stats cache cleared, got %v", err)
	}
	if err := cm.Verify.Get(ctx, "cert:C-1", &got); err != nil {
		t.Errorf("Expected verification cache untouched, got %v", err)
	}
}

func TestCacheManager_InvalidateCertificate(t *testing.T) {
	ctx := context.Background()
	cm, _ := newTestCache(t)

	if err := cm.Verify.Set(ctx, "cert:C-1", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cm.Verify.Set(ctx, "student:S-1", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cm.Verify.Set(ctx, "cert:C-2", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	InvalidateCertificate(ctx, cm, "C-1")

	var got string
	if err := cm.Verify.Get(ctx, "cert:C-1", &got); err != ErrCacheNotFound {
		t.Errorf("Expected revoked certificate dropped, got %v", err)
	}
	if err := cm.Verify.Get(ctx, "student:S-1", &got); err != ErrCacheNotFound {
		t.Errorf("Expected student lookups dropped, got %v", err)
	}
	if err := cm.Verify.Get(ctx, "cert:C-2", &got); err != nil {
		t.Errorf("Expected unrelated certificate kept, got %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)

	if err := cm.Leaderboard.Set(ctx, "all", "v", time.Minute); err != nil {
		t.Errorf("Set on nil client must be a no-op, got %v", err)
	}
	var got string
	if err := cm.Leaderboard.Get(ctx, "all", &got); err != ErrCacheNotAvailable {
		t.Errorf("Expected ErrCacheNotAvailable, got %v", err)
	}

	calls := 0
	var n int
	err := cm.Fast.CacheOrExecute(ctx, "k", &n, time.Minute, func() (interface{}, error) {
		calls++
		return 1, nil
	})
	if err != nil || calls != 1 || n != 1 {
		t.Errorf("Expected fetch to run without a cache, got n=%d calls=%d err=%v", n, calls, err)
	}
}
