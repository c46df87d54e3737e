// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "insurance-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Manager keeps login sessions and revoked token ids in Redis.
type Manager struct {
	client redis.UniversalClient
}

func NewManager(client redis.UniversalClient) *Manager {
	return &Manager{client: client}
}

// CreateSession stores a session until its token expires and indexes its
// token id under the user.
func (m *Manager) CreateSession(ctx context.Context, s *SessionData) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.UserID, s.JTI), data, ttl)
	pipe.SAdd(ctx, userSessionsKey(s.UserID), s.JTI)
	pipe.Expire(ctx, userSessionsKey(s.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// GetSession returns xerrors.ErrSessionExpired when the session is gone.
func (m *Manager) GetSession(ctx context.Context, userID int64, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, sessionKey(userID, jti)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s SessionData
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// InvalidateSession deletes the session and blacklists its token id for the
// remainder of its lifetime.
func (m *Manager) InvalidateSession(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	if err := m.client.Del(ctx, sessionKey(userID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return m.BlacklistToken(ctx, jti, time.Until(expiresAt))
}

// InvalidateUserSessions ends every live session of the user and returns
// their token ids.
func (m *Manager) InvalidateUserSessions(ctx context.Context, userID int64) ([]string, error) {
	jtis, err := m.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}

	revoked := make([]string, 0, len(jtis))
	for _, jti := range jtis {
		s, err := m.GetSession(ctx, userID, jti)
		if errors.Is(err, xerrors.ErrSessionExpired) {
			continue
		}
		if err != nil {
			return revoked, err
		}
		if err := m.InvalidateSession(ctx, userID, jti, s.ExpiresAt); err != nil {
			return revoked, err
		}
		revoked = append(revoked, jti)
	}

	if err := m.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return revoked, fmt.Errorf("failed to clear user sessions: %w", err)
	}
	return revoked, nil
}

func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := m.client.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := m.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return n > 0, nil
}

func sessionKey(userID int64, jti string) string {
	return fmt.Sprintf("session:%d:%s", userID, jti)
}

func userSessionsKey(userID int64) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
