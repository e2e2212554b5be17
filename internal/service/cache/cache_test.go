package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc, err := NewCacheService(rdb, nil)
	if err != nil {
		t.Fatalf("NewCacheService: %v", err)
	}
	return svc, mr
}

func TestSetGetDel(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k", doc{Name: "a", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got doc
	if err := svc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "a" || got.Count != 3 {
		t.Fatalf("Get returned %+v", got)
	}

	if err := svc.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	got = doc{}
	if err := svc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get after Del: %v", err)
	}
	if got.Name != "" {
		t.Fatalf("deleted key still returned %+v", got)
	}
}

func TestGetMissingKeyLeavesDestZero(t *testing.T) {
	svc, _ := newTestCache(t)

	got := doc{Name: "preset"}
	if err := svc.Get(context.Background(), "absent", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "preset" {
		t.Fatalf("missing key must not touch dest, got %+v", got)
	}
}

func TestSetHonorsTTL(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k", doc{Name: "a"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var got doc
	if err := svc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "" {
		t.Fatalf("expired key still returned %+v", got)
	}
}

func TestUpdateAppliesFunction(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k", doc{Name: "a", Count: 1}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := svc.Update(ctx, "k", time.Minute, func(raw []byte) (any, error) {
		if raw == nil {
			t.Fatal("Update saw no existing value")
		}
		return doc{Name: "a", Count: 2}, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got doc
	if err := svc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("Update result not stored: %+v", got)
	}
}

func TestUpdateMissingKeyPassesNil(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	err := svc.Update(ctx, "fresh", time.Minute, func(raw []byte) (any, error) {
		if raw != nil {
			t.Fatalf("expected nil raw for missing key, got %q", raw)
		}
		return doc{Name: "new"}, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got doc
	if err := svc.Get(ctx, "fresh", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "new" {
		t.Fatalf("Update did not create value: %+v", got)
	}
}

func TestUpdateNilResultLeavesValue(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k", doc{Name: "keep"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	err := svc.Update(ctx, "k", time.Minute, func(raw []byte) (any, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got doc
	if err := svc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "keep" {
		t.Fatalf("nil result overwrote value: %+v", got)
	}
}
