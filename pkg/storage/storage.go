package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Provider.Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Provider is a string key/value store scoped to one shopper session.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Factory hands out session-scoped providers over one shared backend.
type Factory interface {
	Provider(sessionID string) Provider
	Ping(ctx context.Context) error
	Close() error
}

func validKey(key string) error {
	if key == "" {
		return errors.New("storage: key is required")
	}
	return nil
}
