package economydb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
)

func TestFetchOrDefaultDoesNotWrite(t *testing.T) {
	store := NewMemoryStore(DefaultSkeleton)

	doc, err := store.FetchOrDefault(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", doc[economydomain.FieldID])
	assert.Equal(t, int64(0), doc[economydomain.FieldPocket])
	assert.Equal(t, 0, store.Len(), "fetch must not materialize a document")
}

func TestUpsertMergeMaterializesSkeleton(t *testing.T) {
	store := NewMemoryStore(DefaultSkeleton)

	doc, err := store.UpsertMerge(context.Background(), "new", map[string]any{
		economydomain.FieldPocket: economydomain.Increment{N: 100},
	})
	require.NoError(t, err)

	// Result is the skeleton merged with the resolved changes.
	assert.Equal(t, "new", doc[economydomain.FieldID])
	assert.Equal(t, int64(100), doc[economydomain.FieldPocket])
	assert.Equal(t, int64(0), doc[economydomain.FieldBank])
	streak, ok := doc[economydomain.FieldStreak].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(0), streak[economydomain.FieldStreakCount])
	assert.Equal(t, 1, store.Len())
}

func TestUpsertMergeResolvesAgainstStoredValues(t *testing.T) {
	// Two changesets computed from the same stale snapshot both land their
	// deltas, because relative operations resolve against the stored value
	// at commit time rather than the caller's local view.
	store := NewMemoryStore(DefaultSkeleton)
	ctx := context.Background()

	_, err := store.UpsertMerge(ctx, "u", map[string]any{
		economydomain.FieldPocket: economydomain.Increment{N: 10},
	})
	require.NoError(t, err)

	doc, err := store.UpsertMerge(ctx, "u", map[string]any{
		economydomain.FieldPocket: economydomain.Increment{N: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), doc[economydomain.FieldPocket])
}

func TestUpsertMergeClampsAtZero(t *testing.T) {
	store := NewMemoryStore(DefaultSkeleton)
	ctx := context.Background()

	_, err := store.UpsertMerge(ctx, "u", map[string]any{
		economydomain.FieldPocket: economydomain.Increment{N: 30},
	})
	require.NoError(t, err)

	doc, err := store.UpsertMerge(ctx, "u", map[string]any{
		economydomain.FieldPocket: economydomain.DecrementFloor{N: 100},
		economydomain.FieldLost:   economydomain.Increment{N: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), doc[economydomain.FieldPocket])
	assert.Equal(t, int64(100), doc[economydomain.FieldLost])
}

func TestUpsertMergeReturnsCopies(t *testing.T) {
	store := NewMemoryStore(DefaultSkeleton)
	ctx := context.Background()

	doc, err := store.UpsertMerge(ctx, "u", map[string]any{
		economydomain.FieldPocket: economydomain.Increment{N: 10},
	})
	require.NoError(t, err)

	doc[economydomain.FieldPocket] = int64(9999)

	fresh, err := store.FetchOrDefault(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(10), fresh[economydomain.FieldPocket], "stored document must not alias returned maps")
}
