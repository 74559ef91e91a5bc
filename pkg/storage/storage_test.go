package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/merch-checkout/pkg/config"
	"github.com/angelmondragon/merch-checkout/pkg/db"
	"github.com/angelmondragon/merch-checkout/pkg/migrate"
	pkgredis "github.com/angelmondragon/merch-checkout/pkg/redis"
)

func TestFactories(t *testing.T) {
	factories := map[string]func(t *testing.T) Factory{
		"memory": func(t *testing.T) Factory { return NewMemoryFactory() },
		"redis": func(t *testing.T) Factory {
			return &RedisFactory{client: newFakeRedis(), ttl: time.Hour}
		},
		"sql": newSQLiteFactory,
	}

	for name, build := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := build(t)
			require.NoError(t, f.Ping(ctx))

			a := f.Provider("session-a")
			b := f.Provider("session-b")

			_, err := a.Get(ctx, "cart")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, a.Set(ctx, "cart", `[{"id":"tee"}]`))
			got, err := a.Get(ctx, "cart")
			require.NoError(t, err)
			require.Equal(t, `[{"id":"tee"}]`, got)

			require.NoError(t, a.Set(ctx, "cart", `[]`))
			got, err = a.Get(ctx, "cart")
			require.NoError(t, err)
			require.Equal(t, `[]`, got)

			_, err = b.Get(ctx, "cart")
			require.ErrorIs(t, err, ErrNotFound, "sessions must not share values")

			require.NoError(t, a.Delete(ctx, "cart"))
			_, err = a.Get(ctx, "cart")
			require.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, a.Delete(ctx, "cart"), "deleting a missing key is not an error")

			require.Error(t, a.Set(ctx, "", "x"))
		})
	}
}

func TestRedisProviderUsesSessionKeys(t *testing.T) {
	fake := newFakeRedis()
	f := &RedisFactory{client: fake, ttl: 2 * time.Hour}
	require.NoError(t, f.Provider("abc").Set(context.Background(), "cart", "[]"))

	require.Contains(t, fake.data, "pf:session:abc:cart")
	require.Equal(t, 2*time.Hour, fake.ttls["pf:session:abc:cart"])
}

func TestRedisProviderWrapsErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection reset")
	p := (&RedisFactory{client: fake}).Provider("abc")

	_, err := p.Get(context.Background(), "cart")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Error(t, p.Set(context.Background(), "cart", "[]"))
}

func newSQLiteFactory(t *testing.T) Factory {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		DSN:          "file::memory:",
		Driver:       config.DBDriverSQLite,
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, client.Dialect(), "up"))
	return NewSQLFactory(client)
}

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Ping(context.Context) error { return f.err }

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) SessionKey(sessionID, name string) string {
	return (&pkgredis.Client{}).SessionKey(sessionID, name)
}
