package mask

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/edkvist/maskann/internal/models"
)

// DataURIPrefix tags encoded mask payloads with their MIME type.
const DataURIPrefix = "data:image/png;base64,"

// bwPalette is a 2-entry palette, which the PNG encoder stores at bit
// depth 1. Index 0 is black (false), index 1 is white (true).
var bwPalette = color.Palette{color.Gray{Y: 0}, color.Gray{Y: 255}}

// EncodeDataURI encodes the plane as a 1-bit black/white PNG wrapped in a
// base64 data URI.
func EncodeDataURI(p *Plane) (string, error) {
	if p.width == 0 || p.height == 0 {
		return "", fmt.Errorf("cannot encode empty %dx%d mask", p.width, p.height)
	}

	img := image.NewPaletted(image.Rect(0, 0, p.width, p.height), bwPalette)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			if p.bits[y*p.width+x] {
				img.SetColorIndex(x, y, 1)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode mask png: %w", err)
	}

	return DataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CreateUploadable builds an upload package from a single boolean mask plane
// and a class id. The input is validated before any encoding work begins: it
// must be boolean and exactly 2-D (a *Plane, or [][]bool, or a one-plane
// canonical form).
//
// The result is ready to be handed to the upload endpoint; it is not itself
// a stored annotation.
func CreateUploadable(v any, classID int) (*models.Uploadable, error) {
	stack, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	if stack.Count() != 1 {
		return nil, fmt.Errorf("expected a single mask plane (height, width), got %d planes", stack.Count())
	}
	p := stack.Plane(0)

	uri, err := EncodeDataURI(p)
	if err != nil {
		return nil, err
	}

	return &models.Uploadable{
		Type:   models.KindMask,
		Format: models.FormatOneBit,
		Annotation: &models.MaskData{
			Mask:   uri,
			Width:  p.width,
			Height: p.height,
			Score:  nil,
			ROI:    p.Bounds().ROI(),
		},
		ClassID: classID,
	}, nil
}
