package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedExam struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "exam:"), mr
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	want := cachedExam{ID: 7, Title: "Algebra Basics"}
	if err := helper.Set(ctx, "id:7", want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedExam
	if err := helper.Get(ctx, "id:7", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestHelper(t)

	var got cachedExam
	if err := helper.Get(context.Background(), "id:404", &got); err != ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"id:1", "id:2"} {
		if err := helper.Set(ctx, key, cachedExam{ID: 1}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := helper.Delete(ctx, "id:1", "id:2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := helper.Exists(ctx, "id:1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("key should be gone after delete")
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "teacher:t-1:list", cachedExam{ID: 1}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := helper.Set(ctx, "teacher:t-2:list", cachedExam{ID: 2}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "teacher:t-1:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	if exists, _ := helper.Exists(ctx, "teacher:t-1:list"); exists {
		t.Error("matching key should be invalidated")
	}
	if exists, _ := helper.Exists(ctx, "teacher:t-2:list"); !exists {
		t.Error("non-matching key should survive")
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "exam:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", cachedExam{}, time.Minute); err != nil {
		t.Errorf("Set with nil client should degrade gracefully: %v", err)
	}
	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("Delete with nil client should degrade gracefully: %v", err)
	}

	var got cachedExam
	if err := helper.Get(ctx, "id:1", &got); err != ErrCacheNotAvailable {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_TTLExpiry(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	if err := helper.Set(ctx, "id:9", cachedExam{ID: 9}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var got cachedExam
	if err := helper.Get(ctx, "id:9", &got); err != ErrCacheNotFound {
		t.Errorf("expected expiry after TTL, got %v", err)
	}
}
