package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"medusa-storefront/internal/config"
	"medusa-storefront/internal/domain"
)

const (
	keyNamespace  = "sf"
	sessionPrefix = "cart_session"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisRepository stores session pointers as plain keys with the session TTL.
type RedisRepository struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// NewRedis connects to redis and verifies connectivity.
func NewRedis(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RedisRepository, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRepository{store: raw, raw: raw, ttl: ttl}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (r *RedisRepository) Get(ctx context.Context, sessionID string) (string, error) {
	id, err := r.store.Get(ctx, SessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get cart session: %w", err)
	}
	return id, nil
}

func (r *RedisRepository) Set(ctx context.Context, sessionID, cartID string) error {
	if err := r.store.Set(ctx, SessionKey(sessionID), cartID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart session: %w", err)
	}
	return nil
}

func (r *RedisRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis clear cart session: %w", err)
	}
	return nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (r *RedisRepository) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

// SessionKey returns the namespaced key of a cart session.
func SessionKey(sessionID string) string {
	return strings.Join([]string{keyNamespace, sessionPrefix, strings.TrimSpace(sessionID)}, ":")
}
