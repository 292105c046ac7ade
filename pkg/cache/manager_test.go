package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client. Skips the test when no
// local Redis is available; the integration suite covers the
// containerized path.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetGet(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := Key{TargetURL: "https://example.com/product", RenderJS: false}
	entry := &Entry{
		PageText:   "<html>product page</html>",
		FinalURL:   "https://example.com/product",
		StatusCode: 200,
		FetchedAt:  time.Now(),
		Expires:    time.Now().Add(10 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PageText != entry.PageText {
		t.Errorf("PageText = %q, want %q", got.PageText, entry.PageText)
	}
	if got.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
	if got.FinalURL != entry.FinalURL {
		t.Errorf("FinalURL = %q, want %q", got.FinalURL, entry.FinalURL)
	}
}

func TestManager_GetMiss(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	_, err := manager.Get(ctx, Key{TargetURL: "https://example.com/never-cached"})
	if err != ErrCacheMiss {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_SetExpiredEntrySkipped(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := Key{TargetURL: "https://example.com/stale"}
	entry := &Entry{
		PageText: "old",
		Expires:  time.Now().Add(-1 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Get() error = %v, already-expired entries must not be stored", err)
	}
}

func TestManager_SetNilEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)

	if err := manager.Set(context.Background(), Key{TargetURL: "https://example.com/"}, nil); err == nil {
		t.Error("Set() with nil entry should fail")
	}
}

func TestManager_Delete(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := Key{TargetURL: "https://example.com/to-delete"}
	entry := &Entry{
		PageText: "bye",
		Expires:  time.Now().Add(10 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Get() after Delete() error = %v, want ErrCacheMiss", err)
	}
}
