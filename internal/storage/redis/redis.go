package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LuckyBoy34/taxi/internal/dialog"
)

// SessionStore durably keeps dialog sessions keyed by chat ID, so a
// process restart resumes mid-conversation. Per-key operations are
// atomic; nothing spans two conversations.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(addr, password string, db int, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			PoolSize:     100,
			MinIdleConns: 10,
		}),
		ttl: ttl,
	}
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// Load returns the stored session, or an idle one when the chat has no
// dialog in progress.
func (s *SessionStore) Load(ctx context.Context, chatID int64) (dialog.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dialog.Session{}, nil
	}
	if err != nil {
		return dialog.Session{}, fmt.Errorf("get session: %w", err)
	}

	var session dialog.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return dialog.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Save(ctx context.Context, chatID int64, session dialog.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(chatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}
