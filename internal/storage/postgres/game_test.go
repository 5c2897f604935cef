package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/buttonmen/internal/storage"
	"github.com/cory-johannsen/buttonmen/internal/storage/postgres"
	"github.com/cory-johannsen/buttonmen/internal/storage/storagetest"
	"github.com/cory-johannsen/buttonmen/internal/testutil"
)

func TestGameRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)

	storagetest.Run(t, func(t *testing.T) storage.GameStore {
		pc.Truncate(t)
		return postgres.NewGameRepository(pc.RawPool)
	})
}

func TestGameRepository_NonUUIDIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewGameRepository(pc.RawPool)

	_, err := repo.LoadGame(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrGameNotFound)
}

func TestMigrateUp_IsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pc := testutil.NewPostgresContainer(t)
	require.NoError(t, postgres.MigrateUp(pc.DSN()))
	require.NoError(t, postgres.MigrateUp(pc.DSN()))

	m, err := postgres.NewMigrator(pc.DSN())
	require.NoError(t, err)
	defer m.Close()
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
