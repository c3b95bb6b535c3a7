package contents

import (
	"context"
	"database/sql"
	"testing"

	"github.com/savezy/savezy/pkg/db"
	"github.com/savezy/savezy/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	conn, err := db.Open(context.Background(), ":memory:", false, "NORMAL", logging.Nop())
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteStore(conn), conn
}

func TestInsert_AssignsUniqueIDs(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 10; i++ {
		rec, err := store.Insert(ctx, Record{Kind: KindWebsite, URL: "https://example.com"})
		require.NoError(t, err)
		require.NotZero(t, rec.ID, "inserted record must carry an id")
		assert.False(t, seen[rec.ID], "id %d assigned twice", rec.ID)
		seen[rec.ID] = true
		assert.NotEmpty(t, rec.Created, "created should default at insert")
	}
}

func TestInsert_IgnoresCallerID(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://a"})
	require.NoError(t, err)

	second, err := store.Insert(ctx, Record{ID: first.ID, Kind: KindVideo, URL: "https://b"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://a", got.URL, "existing row must not be overwritten")
}

func TestInsert_KeepsSuppliedCreated(t *testing.T) {
	store, _ := setupTestStore(t)

	rec, err := store.Insert(context.Background(), Record{Kind: KindNews, URL: "https://n", Created: "2024-01-02 03:04:05"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 03:04:05", rec.Created)
}

func TestTagsRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	cases := [][]string{
		{},
		{"a"},
		{"a", "b", "c"},
		{"with,comma", "trailing,"},
		{"日本語", "émoji 🎬", "quote\"d"},
		{"z", "a", "m"},
		{"a", "a"},
	}

	ids := make([]int64, len(cases))
	for i, tags := range cases {
		rec, err := store.Insert(ctx, Record{Kind: KindImage, ImageURL: "https://img", Tags: tags})
		require.NoError(t, err)
		ids[i] = rec.ID
	}

	all, err := store.SelectAll(ctx)
	require.NoError(t, err)
	byID := map[int64]Record{}
	for _, r := range all {
		byID[r.ID] = r
	}

	for i, tags := range cases {
		got, ok := byID[ids[i]]
		require.True(t, ok)
		assert.Equal(t, tags, got.Tags, "case %d", i)
	}
}

func TestSelectAll_NullTagsDecodeToEmpty(t *testing.T) {
	store, conn := setupTestStore(t)

	_, err := conn.Exec(`INSERT INTO contents (type, url) VALUES ('Video', 'https://legacy');`)
	require.NoError(t, err)

	all, err := store.SelectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].Tags)
	assert.Empty(t, all[0].Tags)
	assert.False(t, all[0].Favorite)
}

func TestSelectAll_NewestFirst(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	old, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://old", Created: "2020-01-01 00:00:00"})
	require.NoError(t, err)
	newer, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://new", Created: "2021-01-01 00:00:00"})
	require.NoError(t, err)
	tieA, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://tie-a", Created: "2022-01-01 00:00:00"})
	require.NoError(t, err)
	tieB, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://tie-b", Created: "2022-01-01 00:00:00"})
	require.NoError(t, err)

	all, err := store.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int64{tieB.ID, tieA.ID, newer.ID, old.ID}, []int64{all[0].ID, all[1].ID, all[2].ID, all[3].ID})
}

func TestSelectAll_EmptyTable(t *testing.T) {
	store, _ := setupTestStore(t)

	all, err := store.SelectAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestUpdate_RewritesColumns(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	lat, lng := 52.52, 13.405
	rec, err := store.Insert(ctx, Record{Kind: KindDirection, Title: "Home", Directions: "left, then right", Tags: []string{"x"}})
	require.NoError(t, err)

	rec.Title = "Office"
	rec.Favorite = true
	rec.Latitude = &lat
	rec.Longitude = &lng
	rec.Tags = []string{"x", "y"}

	updated, err := store.Update(ctx, rec.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, "Office", updated.Title)
	assert.True(t, updated.Favorite)
	require.NotNil(t, updated.Latitude)
	assert.InDelta(t, lat, *updated.Latitude, 1e-9)
	require.NotNil(t, updated.Longitude)
	assert.InDelta(t, lng, *updated.Longitude, 1e-9)
	assert.Equal(t, []string{"x", "y"}, updated.Tags)
	assert.Equal(t, rec.Created, updated.Created)
	assert.Equal(t, KindDirection, updated.Kind)

	// Clearing a field stores NULL and reads back empty.
	updated.Title = ""
	updated.Latitude = nil
	cleared, err := store.Update(ctx, rec.ID, updated)
	require.NoError(t, err)
	assert.Empty(t, cleared.Title)
	assert.Nil(t, cleared.Latitude)
}

func TestUpdate_MissingRow(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Update(context.Background(), 404, Record{Kind: KindVideo, URL: "https://x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_Idempotent(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, Record{Kind: KindMeme, ImageURL: "https://meme"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, rec.ID), "second delete must be a no-op")
	require.NoError(t, store.Delete(ctx, 9999), "deleting an unknown id must be a no-op")
}

func TestStore_ClosedDatabase(t *testing.T) {
	store, conn := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, conn.Close())

	_, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://x"})
	assert.ErrorIs(t, err, ErrStoreIO)

	_, err = store.SelectAll(ctx)
	assert.ErrorIs(t, err, ErrStoreIO)

	_, err = store.Update(ctx, 1, Record{Kind: KindVideo})
	assert.ErrorIs(t, err, ErrStoreIO)

	assert.ErrorIs(t, store.Delete(ctx, 1), ErrStoreIO)
}

func TestStoreScenario(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, Record{Kind: KindVideo, URL: "https://x.com", Title: "T", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	all, err := store.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"a", "b"}, all[0].Tags)

	title := "T2"
	updated, err := store.Update(ctx, rec.ID, Patch{Title: &title}.Apply(all[0]))
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)

	require.NoError(t, store.Delete(ctx, rec.ID))
	all, err = store.SelectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInsert_KeepsWhitespaceOnlyStrings(t *testing.T) {
	store, _ := setupTestStore(t)

	rec, err := store.Insert(context.Background(), Record{Kind: KindVideo, URL: "https://v", Title: "  ", Comment: "\t"})
	require.NoError(t, err)
	assert.Equal(t, "  ", rec.Title)
	assert.Equal(t, "\t", rec.Comment)
	assert.Empty(t, rec.Summary)
}

func TestClone_KeepsEmptyTagsNonNil(t *testing.T) {
	c := Record{Kind: KindVideo, Tags: []string{}}.Clone()
	assert.NotNil(t, c.Tags)
	assert.Empty(t, c.Tags)

	assert.Nil(t, Record{Kind: KindVideo}.Clone().Tags)
}
