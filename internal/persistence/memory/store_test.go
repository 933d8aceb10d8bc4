package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausewise/pausewise/internal/persistence"
)

func entryAt(id string, createdAt time.Time) persistence.LedgerEntry {
	return persistence.LedgerEntry{
		ID:               id,
		UserID:           "user-1",
		Amount:           10,
		Currency:         "USD",
		Category:         "food",
		InterventionType: "manual",
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestStore_ListByUser_NewestFirstWithLimit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := store.Insert(ctx, entryAt(fmt.Sprintf("id-%d", i), base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	entries, err := store.ListByUser(ctx, "user-1", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "id-4", entries[0].ID)
	assert.Equal(t, "id-3", entries[1].ID)
	assert.Equal(t, "id-2", entries[2].ID)
}

func TestStore_ListSince(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := store.Insert(ctx, entryAt("old", base))
	require.NoError(t, err)
	_, err = store.Insert(ctx, entryAt("recent", base.Add(48*time.Hour)))
	require.NoError(t, err)

	entries, err := store.ListSince(ctx, "user-1", base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].ID)

	all, err := store.ListSince(ctx, "user-1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "old", all[0].ID, "ascending created_at order")
}

func TestStore_DuplicateConfirmationRejected(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	confirmation := entryAt("conf-1", time.Now())
	confirmation.Metadata = map[string]interface{}{
		"confirmed":            true,
		"original_estimate_id": "est-1",
	}
	_, err := store.Insert(ctx, confirmation)
	require.NoError(t, err)

	second := entryAt("conf-2", time.Now())
	second.Metadata = map[string]interface{}{
		"confirmed":            true,
		"original_estimate_id": "est-1",
	}
	_, err = store.Insert(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDuplicateConfirmation)

	found, err := store.FindConfirmation(ctx, "user-1", "est-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "conf-1", found.ID)
}

func TestStore_UsersAreIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	mine := entryAt("mine", time.Now())
	_, err := store.Insert(ctx, mine)
	require.NoError(t, err)

	theirs := entryAt("theirs", time.Now())
	theirs.UserID = "user-2"
	_, err = store.Insert(ctx, theirs)
	require.NoError(t, err)

	entry, err := store.GetByID(ctx, "user-2", "mine")
	require.NoError(t, err)
	assert.Nil(t, entry)

	count, err := store.Count(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	entry := entryAt("id-1", time.Now())
	entry.Metadata = map[string]interface{}{"note": "original"}
	_, err := store.Insert(ctx, entry)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "user-1", "id-1")
	require.NoError(t, err)
	got.Metadata["note"] = "mutated"

	again, err := store.GetByID(ctx, "user-1", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Metadata["note"])
}
