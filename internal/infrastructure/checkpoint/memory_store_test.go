package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpipeline/tradingagent/internal/domain"
)

func TestMemoryStore_SaveLoadClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	cp := &domain.WorkflowCheckpoint{
		WorkflowID:         "wf-1",
		LastCompletedStage: domain.StageScoring,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, domain.StageScoring, loaded.LastCompletedStage)

	// mutating the loaded copy must not affect the stored record
	loaded.LastCompletedStage = domain.StageDeployment
	reloaded, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageScoring, reloaded.LastCompletedStage)

	require.NoError(t, store.Clear(ctx, "wf-1"))
	gone, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryStore_LoadMissingReturnsNil(t *testing.T) {
	store := NewMemoryStore()
	cp, err := store.Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, cp)
}
