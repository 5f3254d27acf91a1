// Package mask implements the boolean mask core: normalization of raw mask
// data into a canonical (height, width, count) stack, bounds extraction, and
// the 1-bit PNG data-URI codec.
package mask

import (
	"fmt"
	"image"
)

// Plane is a single two-dimensional boolean mask, stored in row-major order.
type Plane struct {
	width  int
	height int
	bits   []bool
}

// NewPlane creates an all-false plane of the given dimensions.
func NewPlane(width, height int) *Plane {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("mask: negative plane dimensions %dx%d", width, height))
	}
	return &Plane{width: width, height: height, bits: make([]bool, width*height)}
}

// Width returns the plane width in pixels.
func (p *Plane) Width() int { return p.width }

// Height returns the plane height in pixels.
func (p *Plane) Height() int { return p.height }

// At reports whether the pixel at (x, y) is set. Out-of-range coordinates
// report false.
func (p *Plane) At(x, y int) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return false
	}
	return p.bits[y*p.width+x]
}

// Set sets the pixel at (x, y). Out-of-range coordinates are ignored.
func (p *Plane) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return
	}
	p.bits[y*p.width+x] = v
}

// Any reports whether the plane contains at least one true pixel.
func (p *Plane) Any() bool {
	for _, b := range p.bits {
		if b {
			return true
		}
	}
	return false
}

// Equal reports whether two planes have the same dimensions and pixels.
func (p *Plane) Equal(o *Plane) bool {
	if o == nil || p.width != o.width || p.height != o.height {
		return false
	}
	for i := range p.bits {
		if p.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// Gray renders the plane as an 8-bit grayscale image (true=255, false=0).
func (p *Plane) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.width, p.height))
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			if p.bits[y*p.width+x] {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

// Stack is a canonical (height, width, count) stack of mask planes. All
// planes share the same dimensions.
type Stack struct {
	planes []*Plane
}

// Count returns the number of planes in the stack.
func (s *Stack) Count() int { return len(s.planes) }

// Plane returns the i-th plane of the stack.
func (s *Stack) Plane(i int) *Plane { return s.planes[i] }

// Width returns the shared plane width.
func (s *Stack) Width() int {
	if len(s.planes) == 0 {
		return 0
	}
	return s.planes[0].width
}

// Height returns the shared plane height.
func (s *Stack) Height() int {
	if len(s.planes) == 0 {
		return 0
	}
	return s.planes[0].height
}

// Normalize validates raw mask data and reshapes it into a canonical
// (height, width, count) stack. Accepted inputs:
//
//   - *Plane        — wrapped as a single-plane stack
//   - *Stack        — returned unchanged
//   - [][]bool      — a 2-D (height, width) mask, becomes a one-plane stack
//   - [][][]bool    — a 3-D (height, width, count) mask stack
//
// Anything else fails: non-boolean element types with a type error, 1-D or
// 4-D boolean data with a shape error, ragged rows with a shape error.
func Normalize(v any) (*Stack, error) {
	switch m := v.(type) {
	case *Stack:
		return m, nil
	case *Plane:
		return &Stack{planes: []*Plane{m}}, nil
	case [][]bool:
		p, err := planeFromRows(m)
		if err != nil {
			return nil, err
		}
		return &Stack{planes: []*Plane{p}}, nil
	case [][][]bool:
		return stackFromRows(m)
	case []bool:
		return nil, fmt.Errorf("expected mask data to be 2-D (height, width) or 3-D (height, width, count), got 1-D []bool")
	case [][][][]bool:
		return nil, fmt.Errorf("expected mask data to be 2-D (height, width) or 3-D (height, width, count), got 4-D [][][][]bool")
	default:
		return nil, fmt.Errorf("expected boolean mask data ([][]bool or [][][]bool), got %T", v)
	}
}

func planeFromRows(rows [][]bool) (*Plane, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	p := NewPlane(width, height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("ragged mask: row %d has %d columns, expected %d", y, len(row), width)
		}
		copy(p.bits[y*width:(y+1)*width], row)
	}
	return p, nil
}

func stackFromRows(rows [][][]bool) (*Stack, error) {
	height := len(rows)
	width, count := 0, 0
	if height > 0 {
		width = len(rows[0])
		if width > 0 {
			count = len(rows[0][0])
		}
	}
	planes := make([]*Plane, count)
	for i := range planes {
		planes[i] = NewPlane(width, height)
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("ragged mask stack: row %d has %d columns, expected %d", y, len(row), width)
		}
		for x, cell := range row {
			if len(cell) != count {
				return nil, fmt.Errorf("ragged mask stack: cell (%d, %d) has %d planes, expected %d", y, x, len(cell), count)
			}
			for i, b := range cell {
				planes[i].bits[y*width+x] = b
			}
		}
	}
	return &Stack{planes: planes}, nil
}
