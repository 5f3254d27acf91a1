package mask

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"
	"strings"
)

// DecodeDataURI reverses EncodeDataURI: it strips the data-URI prefix,
// base64-decodes, decompresses the PNG, and thresholds back to boolean
// (a fully white pixel is true, everything else false). Any malformed
// payload is a data-integrity error, never silently coerced.
func DecodeDataURI(s string) (*Plane, error) {
	raw, ok := strings.CutPrefix(s, DataURIPrefix)
	if !ok {
		return nil, fmt.Errorf("mask data is not a %q data URI (got %q)", DataURIPrefix, truncate(s, 40))
	}

	compressed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode mask base64: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decode mask png: %w", err)
	}

	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if g.Y == 255 {
				p.bits[y*p.width+x] = true
			}
		}
	}
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
