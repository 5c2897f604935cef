package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/buttonmen/internal/storage"
	"github.com/cory-johannsen/buttonmen/internal/storage/memory"
	"github.com/cory-johannsen/buttonmen/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.GameStore { return memory.NewStore() })
}

func TestStore_LoadIsACopy(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	g := storagetest.NewGame(t)
	require.NoError(t, s.CreateGame(ctx, g.Snapshot()))

	first, err := s.LoadGame(ctx, g.ID())
	require.NoError(t, err)
	first.Scores[0].W = 99

	second, err := s.LoadGame(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scores[0].W)
}
