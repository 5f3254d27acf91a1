package collection

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/edkvist/maskann/internal/mask"
	"github.com/edkvist/maskann/internal/remote"
	"github.com/edkvist/maskann/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })
	return st
}

func seededClient() *remote.MockClient {
	client := remote.NewMockClient()
	client.AddCollection(
		&remote.CollectionInfo{ID: "col-1", Name: "Cells", SourceCount: 1},
		[]*remote.SourceInfo{{Name: "main", ImagesetID: "is-1", ImageCount: 3}},
		map[string][]int{"is-1": {10, 7, 4}},
	)
	return client
}

func TestCollection_ImageMetaLookup(t *testing.T) {
	coll := New(seededClient(), "col-1")

	lookup, err := coll.ImageMetaLookup(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 7, 4}, lookup)
}

func TestCollection_ImagesetID(t *testing.T) {
	coll := New(seededClient(), "col-1")

	id, err := coll.ImagesetID(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "is-1", id)

	_, err = coll.ImagesetID(context.Background(), "missing")
	assert.Error(t, err)
}

func TestCollection_LookupCached(t *testing.T) {
	client := seededClient()
	coll := New(client, "col-1", WithCache(newTestCache(t)))

	ctx := context.Background()
	_, err := coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 1, client.Calls["GetImageMetaLookup"])

	// Second call is served from the cache.
	lookup, err := coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 7, 4}, lookup)
	assert.Equal(t, 1, client.Calls["GetImageMetaLookup"])

	// So is imageset resolution.
	id, err := coll.ImagesetID(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "is-1", id)
	assert.Equal(t, 1, client.Calls["GetImagesetID"])
}

func TestCollection_RefreshLookup(t *testing.T) {
	client := seededClient()
	coll := New(client, "col-1", WithCache(newTestCache(t)))

	ctx := context.Background()
	_, err := coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)

	client.Lookups["is-1"] = []int{10, 7, 4, 99}

	// Cached copy is stale but still served...
	lookup, err := coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, lookup, 3)

	// ...until an explicit refresh.
	lookup, err = coll.RefreshLookup(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 7, 4, 99}, lookup)

	lookup, err = coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, lookup, 4)
}

func TestCollection_CacheExpiry(t *testing.T) {
	client := seededClient()
	coll := New(client, "col-1", WithCache(newTestCache(t)), WithMaxLookupAge(time.Nanosecond))

	ctx := context.Background()
	_, err := coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = coll.ImageMetaLookup(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls["GetImageMetaLookup"], "expired entry must be re-fetched")
}

func TestCollection_UploadMask(t *testing.T) {
	coll := New(seededClient(), "col-1")
	ctx := context.Background()

	up, err := mask.CreateUploadable([][]bool{
		{false, false},
		{true, true},
	}, 5)
	require.NoError(t, err)

	m, err := coll.UploadMask(ctx, "main", 7, up)
	require.NoError(t, err)

	idx, err := m.ImageIndex()
	require.NoError(t, err)
	assert.Equal(t, 7, idx)

	// image index 7 sits at row 1 of the seeded lookup {10, 7, 4}
	row, err := m.RowIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, row)

	id, err := m.ImagesetID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "is-1", id)

	p, err := m.Plane()
	require.NoError(t, err)
	assert.False(t, p.At(0, 0))
	assert.True(t, p.At(0, 1))
}

func TestCollection_UploadMaskValidation(t *testing.T) {
	coll := New(seededClient(), "col-1")
	ctx := context.Background()

	_, err := coll.UploadMask(ctx, "main", 0, nil)
	assert.Error(t, err)

	up, err := mask.CreateUploadable([][]bool{{true}}, 1)
	require.NoError(t, err)

	_, err = coll.UploadMask(ctx, "main", -1, up)
	assert.Error(t, err)

	up.Type = "polygon"
	_, err = coll.UploadMask(ctx, "main", 0, up)
	assert.Error(t, err)
}

func TestCollection_AnnotationsRoundTrip(t *testing.T) {
	client := seededClient()
	coll := New(client, "col-1")
	ctx := context.Background()

	up, err := mask.CreateUploadable([][]bool{{true, false}}, 2)
	require.NoError(t, err)

	uploaded, err := coll.UploadMask(ctx, "main", 4, up)
	require.NoError(t, err)

	// Fetch by id.
	fetched, err := coll.Annotation(ctx, uploaded.Record().ID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.Record().ID, fetched.Record().ID)

	// List filtered by image index.
	masks, err := coll.Annotations(ctx, "main", 4)
	require.NoError(t, err)
	require.Len(t, masks, 1)

	masks, err = coll.Annotations(ctx, "main", remote.AllImages)
	require.NoError(t, err)
	assert.Len(t, masks, 1)

	masks, err = coll.Annotations(ctx, "main", 999)
	require.NoError(t, err)
	assert.Empty(t, masks)
}
