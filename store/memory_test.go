package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-api/config"
	"github.com/raushankrgupta/fitly-api/models"
)

func testSchemas() Schemas {
	return SchemasFor(config.Config{
		ProfilesTable:  "profiles",
		CartItemsTable: "cart",
		FitsTable:      "fits",
		FitsUserIndex:  "UserFitsByDate-Index",
	})
}

func TestMemory_GetMissingIsNotError(t *testing.T) {
	b := NewMemoryBackend(testSchemas())

	got, err := b.Profiles.Get(context.Background(), Key{"user_id": "nobody"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_PutReplacesRecord(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(testSchemas())
	avatar := "uploads/u1/face/a.jpg"

	require.NoError(t, b.Profiles.Put(ctx, &models.UserProfile{UserID: "u1", HeightCM: 180, AvatarKey: &avatar}))
	require.NoError(t, b.Profiles.Put(ctx, &models.UserProfile{UserID: "u1", HeightCM: 170}))

	got, err := b.Profiles.Get(ctx, Key{"user_id": "u1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 170.0, got.HeightCM)
	assert.Nil(t, got.AvatarKey, "put must replace, not merge")
}

func TestMemory_GetRejectsIncompleteKey(t *testing.T) {
	b := NewMemoryBackend(testSchemas())

	_, err := b.CartItems.Get(context.Background(), Key{"user_id": "u1"})
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Op)
}

func TestMemory_UpdateSetOnInsertKeepsFirstValue(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(testSchemas())
	key := Key{"user_id": "u1", "item_key": "acme#p1"}

	require.NoError(t, b.CartItems.Update(ctx, key,
		Fields{"price_cents": int64(1999), "updatedAt": "t1"},
		Fields{"addedAt": "t1"}))
	require.NoError(t, b.CartItems.Update(ctx, key,
		Fields{"price_cents": int64(1499), "updatedAt": "t2"},
		Fields{"addedAt": "t2"}))

	got, err := b.CartItems.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1499), got.PriceCents)
	assert.Equal(t, "t2", got.UpdatedAt)
	assert.Equal(t, "t1", got.AddedAt)
	assert.Equal(t, "acme#p1", got.ItemKey)
	assert.Equal(t, "u1", got.UserID)
}

func TestMemory_QueryPaginatesWithoutGapOrOverlap(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(testSchemas())

	for i := 0; i < 7; i++ {
		key := Key{"user_id": "u1", "item_key": fmt.Sprintf("acme#p%d", i)}
		require.NoError(t, b.CartItems.Update(ctx, key, Fields{"title": "x"}, nil))
	}
	require.NoError(t, b.CartItems.Update(ctx, Key{"user_id": "u2", "item_key": "acme#other"}, Fields{"title": "x"}, nil))

	var seen []string
	cursor := ""
	pages := 0
	for {
		page, err := b.CartItems.Query(ctx, Query{Partition: "u1", Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, it := range page.Items {
			seen = append(seen, it.ItemKey)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{
		"acme#p0", "acme#p1", "acme#p2", "acme#p3", "acme#p4", "acme#p5", "acme#p6",
	}, seen)
}

func TestMemory_QueryIndexDescendingWithLimit(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(testSchemas())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		require.NoError(t, b.Fits.Put(ctx, &models.FitJob{
			FitID:     fmt.Sprintf("fit-%02d", i),
			UserID:    "u1",
			Status:    models.FitPending,
			CreatedAt: models.Timestamp(base.Add(time.Duration(i) * time.Minute)),
		}))
	}
	require.NoError(t, b.Fits.Put(ctx, &models.FitJob{FitID: "foreign", UserID: "u2", CreatedAt: models.Timestamp(base)}))

	page, err := b.Fits.Query(ctx, Query{Index: "UserFitsByDate-Index", Partition: "u1", Descending: true, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 20)
	assert.Equal(t, "fit-24", page.Items[0].FitID)
	assert.Equal(t, "fit-05", page.Items[19].FitID)
	assert.NotEmpty(t, page.NextCursor)

	next, err := b.Fits.Query(ctx, Query{Index: "UserFitsByDate-Index", Partition: "u1", Descending: true, Limit: 20, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 5)
	assert.Equal(t, "fit-04", next.Items[0].FitID)
	assert.Equal(t, "fit-00", next.Items[4].FitID)
	assert.Empty(t, next.NextCursor)
}

func TestMemory_QueryTiesBrokenByTableKey(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(testSchemas())
	ts := models.Timestamp(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, b.Fits.Put(ctx, &models.FitJob{FitID: id, UserID: "u1", CreatedAt: ts}))
	}

	first, err := b.Fits.Query(ctx, Query{Index: "UserFitsByDate-Index", Partition: "u1", Limit: 2})
	require.NoError(t, err)
	second, err := b.Fits.Query(ctx, Query{Index: "UserFitsByDate-Index", Partition: "u1", Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)

	require.Len(t, first.Items, 2)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "a", first.Items[0].FitID)
	assert.Equal(t, "b", first.Items[1].FitID)
	assert.Equal(t, "c", second.Items[0].FitID)
}

func TestMemory_QueryInvalidCursor(t *testing.T) {
	b := NewMemoryBackend(testSchemas())

	_, err := b.CartItems.Query(context.Background(), Query{Partition: "u1", Cursor: "garbage!"})
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestMemory_QueryUnknownIndex(t *testing.T) {
	b := NewMemoryBackend(testSchemas())

	_, err := b.Fits.Query(context.Background(), Query{Index: "nope", Partition: "u1"})
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
}

func TestSchema_CursorAttrsIncludeIndexKeys(t *testing.T) {
	s := testSchemas()

	assert.Equal(t, []string{"user_id", "item_key"}, s.CartItems.cursorAttrs(""))
	assert.Equal(t, []string{"fitId", "user_id", "createdAt"}, s.Fits.cursorAttrs("UserFitsByDate-Index"))
	assert.Equal(t, []string{"createdAt", "fitId"}, s.Fits.orderAttrs("UserFitsByDate-Index"))
	assert.Equal(t, []string{"item_key"}, s.CartItems.orderAttrs(""))
}
