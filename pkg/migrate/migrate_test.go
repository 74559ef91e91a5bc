package migrate_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/merch-checkout/pkg/config"
	"github.com/angelmondragon/merch-checkout/pkg/db"
	"github.com/angelmondragon/merch-checkout/pkg/migrate"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateFS(migrate.Embedded()))
}

func TestKVEntriesMigrationContainsTable(t *testing.T) {
	data, err := os.ReadFile("migrations/20260101000000_create_kv_entries.sql")
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS kv_entries",
		"PRIMARY KEY (namespace, entry_key)",
		"DROP TABLE IF EXISTS kv_entries",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"20260101000000_things.sql": {Data: []byte("-- +goose Up\n")},
		},
		"duplicate version": {
			"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"empty": {},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, migrate.ValidateFS(fsys))
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_order_notes.sql"))
	require.NoError(t, migrate.ValidateFS(os.DirFS(dir)))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		DSN:          "file::memory:",
		Driver:       config.DBDriverSQLite,
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	defer client.Close()

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)

	require.NoError(t, migrate.Run(ctx, sqlDB, client.Dialect(), "up"))
	require.True(t, client.DB().Migrator().HasTable("kv_entries"))

	require.NoError(t, migrate.Run(ctx, sqlDB, client.Dialect(), "down"))
	require.False(t, client.DB().Migrator().HasTable("kv_entries"))
}

func TestMaybeRunSkipsWhenDisabled(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "memory", AutoMigrate: true}}
	require.NoError(t, migrate.MaybeRun(context.Background(), cfg, nil, nil))
}
