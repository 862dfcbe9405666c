package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	captchaTTL = 10 * time.Minute

	// Active-conversation pointers outlive most sessions but should not
	// accumulate forever for abandoned accounts.
	activeConvTTL = 30 * 24 * time.Hour
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func captchaKey(email string) string { return "captcha:" + email }

func (s *Store) SetCaptcha(ctx context.Context, email, code string) error {
	return s.rdb.Set(ctx, captchaKey(email), code, captchaTTL).Err()
}

// GetCaptcha returns redis.Nil when no code is pending for the email.
func (s *Store) GetCaptcha(ctx context.Context, email string) (string, error) {
	return s.rdb.Get(ctx, captchaKey(email)).Result()
}

func (s *Store) DeleteCaptcha(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, captchaKey(email)).Err()
}

func activeConvKey(userID uint64) string {
	return fmt.Sprintf("active_conv:%d", userID)
}

func (s *Store) SetActiveConversation(ctx context.Context, userID uint64, convID string) error {
	return s.rdb.Set(ctx, activeConvKey(userID), convID, activeConvTTL).Err()
}

// GetActiveConversation returns "" when no pointer is set.
func (s *Store) GetActiveConversation(ctx context.Context, userID uint64) (string, error) {
	v, err := s.rdb.Get(ctx, activeConvKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) ClearActiveConversation(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, activeConvKey(userID)).Err()
}
