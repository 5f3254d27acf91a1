// Package collection implements the client-side view of a remote image
// collection: source discovery, imageset resolution, image-meta lookups with
// a local read-through cache, and annotation upload/retrieval.
package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/edkvist/maskann/internal/annotation"
	"github.com/edkvist/maskann/internal/models"
	"github.com/edkvist/maskann/internal/remote"
	"github.com/edkvist/maskann/internal/store"
)

// DefaultSource is used when a collection has a single unnamed source.
const DefaultSource = "main"

// DefaultMaxLookupAge bounds how long a cached image-meta lookup is trusted.
const DefaultMaxLookupAge = 15 * time.Minute

// Collection is a handle on one remote collection. It satisfies
// annotation.Context, so annotations constructed from its records can resolve
// their row index and imageset.
type Collection struct {
	id           string
	client       remote.Client
	cache        *store.Store
	maxLookupAge time.Duration
}

// Option configures a Collection handle.
type Option func(*Collection)

// WithCache enables the local lookup cache.
func WithCache(st *store.Store) Option {
	return func(c *Collection) { c.cache = st }
}

// WithMaxLookupAge overrides how long cached lookups are trusted.
func WithMaxLookupAge(d time.Duration) Option {
	return func(c *Collection) { c.maxLookupAge = d }
}

// New creates a collection handle. Without WithCache every lookup goes to
// the service.
func New(client remote.Client, id string, opts ...Option) *Collection {
	c := &Collection{
		id:           id,
		client:       client,
		maxLookupAge: DefaultMaxLookupAge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the collection identifier.
func (c *Collection) ID() string { return c.id }

// Info fetches the collection's summary record.
func (c *Collection) Info(ctx context.Context) (*remote.CollectionInfo, error) {
	return c.client.GetCollection(ctx, c.id)
}

// Sources lists the collection's sources.
func (c *Collection) Sources(ctx context.Context) ([]*remote.SourceInfo, error) {
	return c.client.ListSources(ctx, c.id)
}

// ImagesetID resolves the imageset the named source points at, served from
// the cache when a fresh lookup entry is present.
func (c *Collection) ImagesetID(ctx context.Context, source string) (string, error) {
	if cached := c.cachedLookup(source); cached != nil {
		return cached.ImagesetID, nil
	}
	return c.client.GetImagesetID(ctx, c.id, source)
}

// ImageMetaLookup returns the ordered image indices of the named source.
// Cached entries are served until they exceed the configured age; fetches
// refresh the cache.
func (c *Collection) ImageMetaLookup(ctx context.Context, source string) ([]int, error) {
	if cached := c.cachedLookup(source); cached != nil {
		return cached.ImageIndices, nil
	}
	return c.fetchLookup(ctx, source)
}

// RefreshLookup bypasses and refreshes the cached lookup for a source.
func (c *Collection) RefreshLookup(ctx context.Context, source string) ([]int, error) {
	return c.fetchLookup(ctx, source)
}

func (c *Collection) cachedLookup(source string) *store.CachedLookup {
	if c.cache == nil {
		return nil
	}
	cached, err := c.cache.GetLookup(c.id, source, c.maxLookupAge)
	if err != nil {
		// A broken cache must not break lookups; fall through to the service.
		return nil
	}
	return cached
}

func (c *Collection) fetchLookup(ctx context.Context, source string) ([]int, error) {
	imagesetID, err := c.client.GetImagesetID(ctx, c.id, source)
	if err != nil {
		return nil, err
	}

	lookup, err := c.client.GetImageMetaLookup(ctx, imagesetID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.PutLookup(c.id, source, imagesetID, lookup); err != nil {
			return nil, fmt.Errorf("cache lookup for %s/%s: %w", c.id, source, err)
		}
	}
	return lookup, nil
}

// UploadMask hands an uploadable mask package to the service, attaching it
// to the given image of the named source. The returned record, wrapped as an
// annotation, is bound to this collection.
func (c *Collection) UploadMask(ctx context.Context, source string, imageIndex int, up *models.Uploadable) (*annotation.Mask, error) {
	if up == nil {
		return nil, fmt.Errorf("uploadable is nil")
	}
	if up.Type != models.KindMask {
		return nil, fmt.Errorf("expected a %q uploadable, got %q", models.KindMask, up.Type)
	}
	if imageIndex < 0 {
		return nil, fmt.Errorf("image index must be non-negative, got %d", imageIndex)
	}

	stored, err := c.client.UploadAnnotation(ctx, c.id, &remote.UploadAnnotationRequest{
		Source:     source,
		ImageIndex: imageIndex,
		Uploadable: up,
	})
	if err != nil {
		return nil, err
	}
	return annotation.NewMask(c, source, stored)
}

// Annotation fetches a single stored record and binds it to this collection.
func (c *Collection) Annotation(ctx context.Context, annotationID string) (*annotation.Mask, error) {
	stored, err := c.client.GetAnnotation(ctx, c.id, annotationID)
	if err != nil {
		return nil, err
	}
	return annotation.NewMask(c, stored.Source, stored)
}

// Annotations lists stored mask records, optionally filtered by source and
// image index (remote.AllImages disables the index filter). Records of other
// annotation kinds are skipped.
func (c *Collection) Annotations(ctx context.Context, source string, imageIndex int) ([]*annotation.Mask, error) {
	records, err := c.client.ListAnnotations(ctx, c.id, source, imageIndex)
	if err != nil {
		return nil, err
	}

	masks := make([]*annotation.Mask, 0, len(records))
	for _, rec := range records {
		if rec.Type != models.KindMask {
			continue
		}
		m, err := annotation.NewMask(c, rec.Source, rec)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return masks, nil
}
