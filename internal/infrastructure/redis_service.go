package infrastructure

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"
)

// RedisService is the session registry. A RedisService without a client is
// disabled: writes are dropped and every session is reported active.
type RedisService struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisService(redisURL string, log *zap.Logger) *RedisService {
	if redisURL == "" {
		log.Info("redis not configured, session registry disabled")
		return &RedisService{log: log}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, session registry disabled", zap.Error(err))
		return &RedisService{log: log}
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis connection failed, session registry disabled", zap.Error(err))
		_ = client.Close()
		return &RedisService{log: log}
	}

	log.Info("connected to redis", zap.String("addr", opt.Addr))
	return &RedisService{client: client, log: log}
}

func NewRedisServiceFromClient(client *redis.Client, log *zap.Logger) *RedisService {
	return &RedisService{client: client, log: log}
}

func (r *RedisService) Enabled() bool {
	return r.client != nil
}

func (r *RedisService) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	userKey := userSessionsKeyPrefix + userID
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+sessionID, userID, ttl)
		pipe.SAdd(ctx, userKey, sessionID)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	return err
}

func (r *RedisService) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	n, err := r.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeUserSessions drops every session registered for userID.
func (r *RedisService) RevokeUserSessions(ctx context.Context, userID string) error {
	if r.client == nil {
		return nil
	}
	userKey := userSessionsKeyPrefix + userID
	sessionIDs, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, userKey)
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisService) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisService) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
