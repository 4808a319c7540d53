package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
	"github.com/pawanpaudel93/nepse-analysis/pkg/config"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func TestSectorStoreRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Fresh store has no snapshot.
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	sectors := []nepse.Sector{
		{ID: 51, Name: "Banking SubIndex"},
		{ID: 52, Name: "Hotels And Tourism Index"},
		{ID: 55, Name: "Hydro Power Index"},
	}
	require.NoError(t, store.Save(ctx, sectors))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sectors, loaded)
}

func TestSectorStoreSaveReplaces(t *testing.T) {
	store, err := Open(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []nepse.Sector{{ID: 51, Name: "Banking SubIndex"}}))
	require.NoError(t, store.Save(ctx, []nepse.Sector{{ID: 57, Name: "Life Insurance"}}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 57, loaded[0].ID)
}

func TestSectorStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, []nepse.Sector{{ID: 58, Name: "NEPSE Index"}}))
	require.NoError(t, store.Close())

	// The snapshot survives process restarts.
	reopened, err := Open(dir, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "NEPSE Index", loaded[0].Name)
}
