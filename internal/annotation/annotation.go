// Package annotation wraps stored annotation records together with their
// owning collection context and exposes the derived positional fields.
package annotation

import (
	"context"
	"fmt"
	"image"

	"github.com/edkvist/maskann/internal/mask"
	"github.com/edkvist/maskann/internal/models"
)

// Context is the read-only view of a collection that annotations consult for
// derived fields. Annotations never mutate it; keeping it valid for the
// lifetime of the annotation is the caller's responsibility.
type Context interface {
	// ImageMetaLookup returns the ordered image indices of the named source.
	ImageMetaLookup(ctx context.Context, source string) ([]int, error)
	// ImagesetID resolves the imageset the named source points at.
	ImagesetID(ctx context.Context, source string) (string, error)
}

// Annotation is a single annotation record bound to its collection context.
// Mask is the only variant today; future kinds dispatch on Kind.
type Annotation interface {
	Kind() string
	Record() *models.StoredAnnotation
}

// Mask is a bitmask annotation: an immutable, read-only view over a stored
// record. The boolean mask is decoded on demand, never cached.
type Mask struct {
	coll   Context
	source string
	record *models.StoredAnnotation
}

// NewMask wraps a stored record. The record must carry the mask type tag.
func NewMask(coll Context, source string, record *models.StoredAnnotation) (*Mask, error) {
	if record == nil {
		return nil, fmt.Errorf("annotation record is nil")
	}
	if record.Type != models.KindMask {
		return nil, fmt.Errorf("expected a %q annotation record, got %q", models.KindMask, record.Type)
	}
	return &Mask{coll: coll, source: source, record: record}, nil
}

// Kind returns the annotation variant tag.
func (m *Mask) Kind() string { return models.KindMask }

// Record returns the underlying stored record.
func (m *Mask) Record() *models.StoredAnnotation { return m.record }

// Source returns the name of the source this annotation belongs to.
func (m *Mask) Source() string { return m.source }

// ImageIndex returns the position of the target image within its imageset.
// A record without the key is a contract violation.
func (m *Mask) ImageIndex() (int, error) {
	if m.record.ImageIndex == nil {
		return 0, fmt.Errorf("annotation record does not contain %q: %+v", "image_index", m.record)
	}
	return *m.record.ImageIndex, nil
}

// RowIndex returns the position of ImageIndex within the collection's
// ordered image-meta lookup. The lookup is consulted on every call, so a
// refreshed lookup is picked up without rebinding the annotation. An image
// index absent from the lookup is a propagated lookup error.
func (m *Mask) RowIndex(ctx context.Context) (int, error) {
	idx, err := m.ImageIndex()
	if err != nil {
		return 0, err
	}

	lookup, err := m.coll.ImageMetaLookup(ctx, m.source)
	if err != nil {
		return 0, err
	}

	for i, v := range lookup {
		if v == idx {
			return i, nil
		}
	}
	return 0, fmt.Errorf("image index %d not present in image meta lookup for source %q", idx, m.source)
}

// ImagesetID resolves the imageset this annotation belongs to via the
// collection context.
func (m *Mask) ImagesetID(ctx context.Context) (string, error) {
	return m.coll.ImagesetID(ctx, m.source)
}

// Plane decodes the stored mask back into a boolean plane. Dimension
// mismatches between the record and the decoded image are data-integrity
// errors.
func (m *Mask) Plane() (*mask.Plane, error) {
	if m.record.Annotation == nil {
		return nil, fmt.Errorf("annotation record has no mask payload: %+v", m.record)
	}

	p, err := mask.DecodeDataURI(m.record.Annotation.Mask)
	if err != nil {
		return nil, err
	}

	if w, h := m.record.Annotation.Width, m.record.Annotation.Height; w != p.Width() || h != p.Height() {
		return nil, fmt.Errorf("mask decoded to %dx%d but record declares %dx%d", p.Width(), p.Height(), w, h)
	}
	return p, nil
}

// Gray decodes the mask and renders it as an 8-bit grayscale image
// (true=255, false=0), for viewing.
func (m *Mask) Gray() (*image.Gray, error) {
	p, err := m.Plane()
	if err != nil {
		return nil, err
	}
	return p.Gray(), nil
}
