package mask

import "github.com/edkvist/maskann/internal/models"

// Bounds is the extent of the true pixels of a plane, inclusive on all four
// edges. The zero value is the defined fallback for an all-false plane: an
// empty mask has no meaningful extent, but callers still get a well-formed
// record.
type Bounds struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Bounds computes the tight bounding box of the plane's true pixels.
// A plane with a single true pixel at (r, c) yields Top=Bottom=r,
// Left=Right=c.
func (p *Plane) Bounds() Bounds {
	rowAny := make([]bool, p.height)
	colAny := make([]bool, p.width)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			if p.bits[y*p.width+x] {
				rowAny[y] = true
				colAny[x] = true
			}
		}
	}

	top, bottom, ok := firstLast(rowAny)
	if !ok {
		return Bounds{}
	}
	left, right, _ := firstLast(colAny)
	return Bounds{Top: top, Bottom: bottom, Left: left, Right: right}
}

// firstLast returns the first and last true indices of v, or ok=false if
// none are true.
func firstLast(v []bool) (first, last int, ok bool) {
	first = -1
	for i, b := range v {
		if b {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return 0, 0, false
	}
	return first, last, true
}

// ROI converts bounds into the wire-format region of interest.
func (b Bounds) ROI() models.ROI {
	return models.ROI{
		XMin:   b.Left,
		XMax:   b.Right,
		YMin:   b.Top,
		YMax:   b.Bottom,
		Width:  b.Right - b.Left,
		Height: b.Bottom - b.Top,
	}
}
