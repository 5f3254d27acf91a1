// Package models defines the core data structures used throughout maskann
// including mask payloads, ROIs, and stored annotation records.
package models

// KindMask is the annotation type tag for bitmask annotations.
const KindMask = "mask"

// FormatOneBit identifies the 1-bit single-channel mask encoding.
const FormatOneBit = "1UC1"

// ROI is the tight axis-aligned bounding box of the true pixels of a mask.
// Width and Height are derived: Width = XMax-XMin, Height = YMax-YMin.
// An entirely false mask has an all-zero ROI.
type ROI struct {
	XMin   int `json:"xmin"`
	XMax   int `json:"xmax"`
	YMin   int `json:"ymin"`
	YMax   int `json:"ymax"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MaskData is the payload of a mask annotation. Mask holds the encoded
// image as a base64 data URI ("data:image/png;base64,...").
type MaskData struct {
	Mask   string   `json:"mask"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Score  *float64 `json:"score"`
	ROI    ROI      `json:"roi"`
}

// Uploadable is a self-contained package ready to be handed to the upload
// endpoint. It is not itself a stored annotation; the service turns it into
// one.
type Uploadable struct {
	Type       string    `json:"type"`
	Format     string    `json:"format"`
	Annotation *MaskData `json:"annotation"`
	ClassID    int       `json:"class_id"`
}

// StoredAnnotation is an annotation record as returned by the service.
// ImageIndex is a pointer so a missing key can be told apart from index 0.
type StoredAnnotation struct {
	ID         string    `json:"id,omitempty"`
	ImagesetID string    `json:"imageset_id,omitempty"`
	ImageIndex *int      `json:"image_index,omitempty"`
	Source     string    `json:"source,omitempty"`
	Type       string    `json:"type"`
	Format     string    `json:"format,omitempty"`
	ClassID    int       `json:"class_id,omitempty"`
	Annotation *MaskData `json:"annotation"`
}
