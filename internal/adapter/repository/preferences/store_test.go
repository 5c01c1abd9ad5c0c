package preferences

import (
	"context"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a test preferences store
func newTestStore() (*Store, fyne.Preferences) {
	prefs := test.NewApp().Preferences()
	return NewStore(prefs), prefs
}

func TestStore_GetSetRemove(t *testing.T) {
	store, prefs := newTestStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "audio_session")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "audio_session", `{"playlist":[],"playbackMode":"ordered","volume":0.7}`))

	v, ok, err := store.Get(ctx, "audio_session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, v, `"volume":0.7`)
	assert.Equal(t, v, prefs.String(KeyPrefix+"audio_session"))

	require.NoError(t, store.Remove(ctx, "audio_session"))
	_, ok, err = store.Get(ctx, "audio_session")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_EmptyValueIsPresent(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", ""))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestStore_CancelledContext(t *testing.T) {
	store, _ := newTestStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Set(ctx, "k", "v"), context.Canceled)
	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
