package storage

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/merch-checkout/pkg/redis"
)

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
	SessionKey(sessionID, name string) string
}

// RedisFactory stores session values under pf:session:<id>:<key>.
type RedisFactory struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisFactory(client *pkgredis.Client) *RedisFactory {
	return &RedisFactory{client: client, ttl: client.TTL()}
}

func (f *RedisFactory) Provider(sessionID string) Provider {
	return &redisProvider{client: f.client, ttl: f.ttl, sessionID: sessionID}
}

func (f *RedisFactory) Ping(ctx context.Context) error { return f.client.Ping(ctx) }

func (f *RedisFactory) Close() error { return f.client.Close() }

type redisProvider struct {
	client    redisClient
	ttl       time.Duration
	sessionID string
}

func (p *redisProvider) Get(ctx context.Context, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	v, err := p.client.Get(ctx, p.client.SessionKey(p.sessionID, key))
	if pkgredis.IsNil(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return v, nil
}

func (p *redisProvider) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.client.SessionKey(p.sessionID, key), value, p.ttl); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (p *redisProvider) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := p.client.Del(ctx, p.client.SessionKey(p.sessionID, key)); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
