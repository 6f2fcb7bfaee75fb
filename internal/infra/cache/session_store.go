package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/leadscout/internal/entity"
)

// defaultTTL applies to sessions without an expiry.
const defaultTTL = 24 * time.Hour

// SessionStore keeps device sessions in Redis under <prefix>session:<device>.
type SessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) key(deviceID string) string {
	return s.prefix + "session:" + deviceID
}

// Load returns nil, nil when the device has no stored session.
func (s *SessionStore) Load(ctx context.Context, deviceID string) (*entity.Session, error) {
	raw, err := s.client.Get(ctx, s.key(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session entity.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, deviceID string, session *entity.Session) error {
	ttl := defaultTTL
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return s.Delete(ctx, deviceID)
		}
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(deviceID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, s.key(deviceID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
