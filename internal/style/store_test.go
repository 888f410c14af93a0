package style_test

import (
	"testing"
	"time"

	"brandshot-backend/internal/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ApplyPublishes(t *testing.T) {
	store := style.NewStore(style.Default())
	updates, cancel := store.Subscribe()
	defer cancel()

	snap, err := store.Apply(style.FieldBackground, "#123456")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)

	select {
	case got := <-updates:
		assert.Equal(t, "#123456", got.State.Background)
		assert.Equal(t, uint64(1), got.Version)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestStore_FailedApplyPublishesNothing(t *testing.T) {
	store := style.NewStore(style.Default())
	updates, cancel := store.Subscribe()
	defer cancel()

	_, err := store.Apply("unknown", 1)
	require.Error(t, err)

	select {
	case <-updates:
		t.Fatal("unexpected snapshot")
	default:
	}
	assert.Equal(t, uint64(0), store.Current().Version)
}

func TestStore_SlowSubscriberSeesLatest(t *testing.T) {
	store := style.NewStore(style.Default())
	updates, cancel := store.Subscribe()
	defer cancel()

	for _, bg := range []string{"#111111", "#222222", "#333333"} {
		_, err := store.Apply(style.FieldBackground, bg)
		require.NoError(t, err)
	}

	got := <-updates
	assert.Equal(t, "#333333", got.State.Background)
	assert.Equal(t, uint64(3), got.Version)
}

func TestStore_ApplyAllIsAtomic(t *testing.T) {
	store := style.NewStore(style.Default())

	_, err := store.ApplyAll(map[string]any{
		style.FieldPadding:      0,
		style.FieldCornerRadius: "bad",
	}, []string{style.FieldPadding, style.FieldCornerRadius})
	require.Error(t, err)
	assert.Equal(t, 64, store.Current().State.PaddingX)

	snap, err := store.ApplyAll(map[string]any{
		style.FieldPadding:      0,
		style.FieldCornerRadius: 0,
	}, []string{style.FieldPadding, style.FieldCornerRadius})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.State.PaddingX)
	assert.Equal(t, 0, snap.State.CornerRadius)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestStore_CancelClosesChannel(t *testing.T) {
	store := style.NewStore(style.Default())
	updates, cancel := store.Subscribe()
	cancel()
	cancel()

	_, ok := <-updates
	assert.False(t, ok)

	_, err := store.Apply(style.FieldPadding, 10)
	assert.NoError(t, err)
}

func TestStore_SetPro(t *testing.T) {
	store := style.NewStore(style.Default())
	snap := store.SetPro(true)
	assert.True(t, snap.State.ProEnabled)
}
