// Package session provides storage backends for server-side session records.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"captureplan/api/internal/store"
	"github.com/redis/go-redis/v9"
)

// recordData is the JSON shape stored for each session.
type recordData struct {
	UserID               string    `json:"user_id"`
	ActiveOrganizationID string    `json:"active_organization_id,omitempty"`
	ExpiresAt            time.Time `json:"expires_at"`
	CreatedAt            time.Time `json:"created_at"`
}

// RedisStore implements session record storage using Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "session:"}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// SaveSession stores a session record with a TTL derived from its expiry.
func (s *RedisStore) SaveSession(ctx context.Context, record store.SessionRecord) error {
	data := recordData{
		UserID:               record.UserID,
		ActiveOrganizationID: record.ActiveOrganizationID,
		ExpiresAt:            record.ExpiresAt,
		CreatedAt:            time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	if err := s.client.Set(ctx, s.key(record.ID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LookupSession retrieves a session record. A missing or expired key maps to
// sql.ErrNoRows so callers treat both backends uniformly.
func (s *RedisStore) LookupSession(ctx context.Context, sessionID string) (store.SessionRecord, error) {
	jsonData, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return store.SessionRecord{}, sql.ErrNoRows
	}
	if err != nil {
		return store.SessionRecord{}, fmt.Errorf("lookup session: %w", err)
	}

	var data recordData
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return store.SessionRecord{}, fmt.Errorf("unmarshal session record: %w", err)
	}

	return store.SessionRecord{
		ID:                   sessionID,
		UserID:               data.UserID,
		ActiveOrganizationID: data.ActiveOrganizationID,
		ExpiresAt:            data.ExpiresAt,
	}, nil
}

// SetActiveOrganization rewrites the record with a new active organization,
// preserving the remaining TTL.
func (s *RedisStore) SetActiveOrganization(ctx context.Context, sessionID, organizationID string) error {
	record, err := s.LookupSession(ctx, sessionID)
	if err != nil {
		return err
	}
	record.ActiveOrganizationID = organizationID
	return s.SaveSession(ctx, record)
}

// RevokeSession deletes a session record.
func (s *RedisStore) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
