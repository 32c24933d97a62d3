package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type report struct {
		Total int     `json:"total"`
		Pct   float64 `json:"pct"`
	}
	if err := mc.Set(ctx, "acc:AAPL", report{Total: 3, Pct: 66.5}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got report
	if err := mc.Get(ctx, "acc:AAPL", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Total != 3 || got.Pct != 66.5 {
		t.Fatalf("unexpected value %+v", got)
	}
	if err := mc.Get(ctx, "acc:MSFT", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "k", "v", time.Second)
	now = now.Add(2 * time.Second)
	var v string
	if err := mc.Get(ctx, "k", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key, got %v", err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "accuracy:AAPL:strength", 1, 0)
	_ = mc.Set(ctx, "accuracy:MSFT:strength", 2, 0)
	_ = mc.Set(ctx, "other", 3, 0)
	if err := mc.DeleteByPattern(ctx, "accuracy:*"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := mc.Get(ctx, "accuracy:AAPL:strength", &n); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected pattern delete")
	}
	if err := mc.Get(ctx, "other", &n); err != nil || n != 3 {
		t.Fatalf("unrelated key removed: %v", err)
	}
}

func TestMemoryCacheTryLockExclusive(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var acquired int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := mc.TryLock(ctx, "verify:AAPL", time.Minute); ok {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	wg.Wait()
	if acquired != 1 {
		t.Fatalf("lock acquired %d times, want 1", acquired)
	}
	_ = mc.Unlock(ctx, "verify:AAPL")
	if ok, _ := mc.TryLock(ctx, "verify:AAPL", time.Minute); !ok {
		t.Fatalf("lock should be free after unlock")
	}
}

func TestWithLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_, _ = mc.TryLock(ctx, "busy", time.Minute)
	ran := false
	ok, err := WithLock(ctx, mc, "busy", time.Minute, func() error { ran = true; return nil })
	if err != nil || ok || ran {
		t.Fatalf("held lock should skip fn: ok=%v ran=%v err=%v", ok, ran, err)
	}

	ok, err = WithLock(ctx, mc, "free", time.Minute, func() error { ran = true; return nil })
	if err != nil || !ok || !ran {
		t.Fatalf("free lock should run fn: ok=%v ran=%v err=%v", ok, ran, err)
	}
	if ok, _ := mc.TryLock(ctx, "free", time.Minute); !ok {
		t.Fatalf("WithLock should release the lock")
	}
}

func TestKey(t *testing.T) {
	h := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	if got := Key("verify", "AAPL", h); got != "verify:AAPL:2024-03-04T14:00:00Z" {
		t.Fatalf("unexpected key %q", got)
	}
}
