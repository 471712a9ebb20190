package usersession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/pkg"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL       = 24 * 30 * time.Hour
	sessionKeyPrefix = "keepfit-session||"
)

var ErrSessionNotFound = errors.New("session not found")

type ctxKey string

const ctxKeyUserID ctxKey = "user-id"

// ContextWithUserID attaches the resolved user ID to the request context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext returns the user ID previously attached to the context,
// or an empty string when no session was resolved.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKeyUserID).(string)
	return userID
}

// Service maps opaque session tokens to user IDs via redis.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Add creates a new session for the given user and returns the session token.
func (s *Service) Add(ctx context.Context, userID string) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// UserID resolves the session token to a user ID.
// Returns ErrSessionNotFound for unknown or expired tokens.
func (s *Service) UserID(ctx context.Context, token string) (string, error) {
	sessionKey := sessionKeyPrefix + token
	cmd := s.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return cmd.Val(), nil
}

// Remove deletes the session for the given token.
func (s *Service) Remove(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	removed, err := s.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}
