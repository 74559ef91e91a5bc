package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/angelmondragon/merch-checkout/pkg/db"
	"github.com/angelmondragon/merch-checkout/pkg/db/models"
)

// SQLFactory stores session values as rows of kv_entries keyed by (session, key).
type SQLFactory struct {
	client *db.Client
	now    func() time.Time
}

func NewSQLFactory(client *db.Client) *SQLFactory {
	return &SQLFactory{client: client, now: time.Now}
}

func (f *SQLFactory) Provider(sessionID string) Provider {
	return &sqlProvider{factory: f, namespace: sessionID}
}

func (f *SQLFactory) Ping(ctx context.Context) error { return f.client.Ping(ctx) }

func (f *SQLFactory) Close() error { return f.client.Close() }

type sqlProvider struct {
	factory   *SQLFactory
	namespace string
}

func (p *sqlProvider) Get(ctx context.Context, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	var entry models.KVEntry
	err := p.factory.client.DB().WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", p.namespace, key).
		First(&entry).Error
	if db.IsNotFound(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select kv entry: %w", err)
	}
	return entry.Value, nil
}

func (p *sqlProvider) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	entry := models.KVEntry{
		Namespace: p.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: p.factory.now().UTC(),
	}
	err := p.factory.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (p *sqlProvider) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := p.factory.client.DB().WithContext(ctx).
		Where("namespace = ? AND entry_key = ?", p.namespace, key).
		Delete(&models.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}
