package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"captureplan/api/internal/store"
	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	redisStore, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return redisStore, s
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	redisStore, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer redisStore.Close()

	ctx := context.Background()
	if err := redisStore.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveAndLookupSession(t *testing.T) {
	redisStore, s := setupTestRedis(t)
	defer redisStore.Close()
	defer s.Close()

	ctx := context.Background()
	record := store.SessionRecord{
		ID:                   "ses_test",
		UserID:               "user-123",
		ActiveOrganizationID: "org-1",
		ExpiresAt:            time.Now().Add(24 * time.Hour),
	}

	if err := redisStore.SaveSession(ctx, record); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := redisStore.LookupSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("LookupSession failed: %v", err)
	}
	if got.UserID != record.UserID {
		t.Errorf("expected user %s, got %s", record.UserID, got.UserID)
	}
	if got.ActiveOrganizationID != "org-1" {
		t.Errorf("expected active org org-1, got %s", got.ActiveOrganizationID)
	}
}

func TestLookupMissingSession(t *testing.T) {
	redisStore, s := setupTestRedis(t)
	defer redisStore.Close()
	defer s.Close()

	_, err := redisStore.LookupSession(context.Background(), "ses_missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	redisStore, s := setupTestRedis(t)
	defer redisStore.Close()
	defer s.Close()

	ctx := context.Background()
	record := store.SessionRecord{
		ID:        "ses_expired",
		UserID:    "user-456",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := redisStore.SaveSession(ctx, record); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	if _, err := redisStore.LookupSession(ctx, record.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for expired session, got %v", err)
	}
}

func TestSetActiveOrganization(t *testing.T) {
	redisStore, s := setupTestRedis(t)
	defer redisStore.Close()
	defer s.Close()

	ctx := context.Background()
	record := store.SessionRecord{
		ID:        "ses_active",
		UserID:    "user-789",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := redisStore.SaveSession(ctx, record); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if err := redisStore.SetActiveOrganization(ctx, record.ID, "org-42"); err != nil {
		t.Fatalf("SetActiveOrganization failed: %v", err)
	}

	got, err := redisStore.LookupSession(ctx, record.ID)
	if err != nil {
		t.Fatalf("LookupSession failed: %v", err)
	}
	if got.ActiveOrganizationID != "org-42" {
		t.Errorf("expected active org org-42, got %s", got.ActiveOrganizationID)
	}
}

func TestRevokeSession(t *testing.T) {
	redisStore, s := setupTestRedis(t)
	defer redisStore.Close()
	defer s.Close()

	ctx := context.Background()
	record := store.SessionRecord{
		ID:        "ses_revoke",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := redisStore.SaveSession(ctx, record); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	if err := redisStore.RevokeSession(ctx, record.ID); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}

	if _, err := redisStore.LookupSession(ctx, record.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after revoke, got %v", err)
	}
}
