package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
)

func TestStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, ok, err := store.Get(ctx, "audio_session")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "audio_session", `{"volume":0.5}`))
	v, ok, err := store.Get(ctx, "audio_session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"volume":0.5}`, v)

	require.NoError(t, store.Remove(ctx, "audio_session"))
	require.NoError(t, store.Remove(ctx, "audio_session"))
	_, ok, err = store.Get(ctx, "audio_session")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, store.Writes())
}

func TestStore_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.SetFailWrites(true)
	store.SetFailReads(true)

	err := store.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, ErrInjected)

	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "memory", repoErr.Type)
	assert.Equal(t, "set", repoErr.Op)

	_, _, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrInjected)
	assert.ErrorIs(t, store.Remove(ctx, "k"), ErrInjected)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewStore().Set(ctx, "k", "v"), context.Canceled)
}
