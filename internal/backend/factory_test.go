package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/config"
	sheetmem "finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x"})
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, cfg.Type)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: PostgresBackend}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
}

func TestFactory_CreateStore(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	store, cleanup, err := f.CreateStore(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, cleanup())

	store, cleanup, err = f.CreateStore(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "f.db")})
	require.NoError(t, err)
	assert.IsType(t, &storage.Repository{}, store)
	assert.NoError(t, cleanup())

	_, _, err = f.CreateStore(ctx, Config{Type: SQLiteBackend})
	assert.Error(t, err)
}

func TestFactory_OptionalIntegrations(t *testing.T) {
	f := NewFactory(nil)

	pub, cleanup := f.CreatePublisher(Config{})
	assert.Nil(t, pub)
	assert.NoError(t, cleanup())

	sheet, err := f.CreateSheet(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &sheetmem.Sheet{}, sheet)
}
