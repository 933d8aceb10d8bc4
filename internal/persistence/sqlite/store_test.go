package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausewise/pausewise/internal/persistence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_InsertAndRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	entry := persistence.LedgerEntry{
		ID:               "e1",
		UserID:           "user-1",
		Amount:           25.75,
		Currency:         "USD",
		Description:      "coffee skipped",
		Category:         "food",
		InterventionType: "mood_alert",
		Metadata: map[string]interface{}{
			"estimated": true,
			"rule":      "mood_spending_risk",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := store.Insert(ctx, entry)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "user-1", "e1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, entry.ID, got.ID)
	assert.InDelta(t, entry.Amount, got.Amount, 1e-9)
	assert.Equal(t, "mood_spending_risk", got.Metadata["rule"])
	assert.Equal(t, true, got.Metadata["estimated"])
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestStore_GetByID_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetByID(context.Background(), "user-1", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ListOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_, err := store.Insert(ctx, persistence.LedgerEntry{
			ID: id, UserID: "user-1", Amount: 5, Currency: "USD",
			Category: "other", InterventionType: "manual",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	newest, err := store.ListByUser(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "c", newest[0].ID)
	assert.Equal(t, "b", newest[1].ID)

	since, err := store.ListSince(ctx, "user-1", base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "b", since[0].ID)
	assert.Equal(t, "c", since[1].ID)
}

func TestStore_ConfirmationUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := persistence.LedgerEntry{
		ID: "conf-1", UserID: "user-1", Amount: 12, Currency: "USD",
		Category: "food", InterventionType: "manual",
		Metadata: map[string]interface{}{
			"confirmed":            true,
			"original_estimate_id": "est-1",
		},
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := store.Insert(ctx, first)
	require.NoError(t, err)

	dup := first
	dup.ID = "conf-2"
	_, err = store.Insert(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDuplicateConfirmation)

	found, err := store.FindConfirmation(ctx, "user-1", "est-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "conf-1", found.ID)

	missing, err := store.FindConfirmation(ctx, "user-1", "est-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
