package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the same contract checks against every Store
// implementation.
func storeUnderTest(t *testing.T, store Store) {
	ctx := context.Background()
	key := Key{Feature: FeatureQuiz, UserID: 99}

	t.Run("load missing returns default", func(t *testing.T) {
		snap, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Zero(t, snap.Version)
		assert.Zero(t, snap.State.Step)
		assert.False(t, snap.State.Complete)
	})

	t.Run("save and reload", func(t *testing.T) {
		snap, err := store.Load(ctx, key)
		require.NoError(t, err)

		snap.State.SubmitAnswer("category", "savory", 5)
		saved, err := store.Save(ctx, key, snap)
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(1), loaded.Version)
		assert.Equal(t, 1, loaded.State.Step)
		assert.Equal(t, "savory", loaded.State.Answers["category"])
	})

	t.Run("stale write rejected", func(t *testing.T) {
		stale := Snapshot{State: DefaultState(FeatureQuiz), Version: 0}
		_, err := store.Save(ctx, key, stale)
		assert.ErrorIs(t, err, ErrStaleWrite)

		// The stored state is untouched.
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.State.Step)
	})

	t.Run("reset returns default", func(t *testing.T) {
		snap, err := store.Reset(ctx, key)
		require.NoError(t, err)
		assert.Zero(t, snap.Version)
		assert.Zero(t, snap.State.Step)

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Zero(t, loaded.Version)
	})

	t.Run("features do not collide", func(t *testing.T) {
		chatKey := Key{Feature: FeatureChatbot, UserID: 99}
		chat, err := store.Load(ctx, chatKey)
		require.NoError(t, err)
		chat.State.Append(Message{Role: RoleUser, Content: "pizza please"})
		_, err = store.Save(ctx, chatKey, chat)
		require.NoError(t, err)

		quiz, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, quiz.State.Messages)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	storeUnderTest(t, store)
}

func TestSQLiteStoreCorruptPayload(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	key := Key{Feature: FeatureChatbot, UserID: 1}

	snap, err := store.Load(ctx, key)
	require.NoError(t, err)
	snap.State.Append(Message{Role: RoleUser, Content: "hello"})
	_, err = store.Save(ctx, key, snap)
	require.NoError(t, err)

	_, err = store.conn.Exec(
		`UPDATE conversation_state SET payload = '{not json' WHERE key = ?`, key.String())
	require.NoError(t, err)

	// A corrupt entry loads as the feature default.
	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Len(t, loaded.State.Messages, 1)
	assert.Equal(t, ChatGreeting, loaded.State.Messages[0].Content)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()
	key := Key{Feature: FeatureQuiz, UserID: 5}

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	snap, err := store.Load(ctx, key)
	require.NoError(t, err)
	snap.State.SubmitAnswer("category", "sweet", 5)
	_, err = store.Save(ctx, key, snap)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "sweet", loaded.State.Answers["category"])
}
