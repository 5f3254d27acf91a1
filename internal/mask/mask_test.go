package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planeFrom builds a plane from string rows where '#' is true.
func planeFrom(t *testing.T, rows ...string) *Plane {
	t.Helper()
	grid := make([][]bool, len(rows))
	for y, row := range rows {
		grid[y] = make([]bool, len(row))
		for x, c := range row {
			grid[y][x] = c == '#'
		}
	}
	stack, err := Normalize(grid)
	require.NoError(t, err)
	require.Equal(t, 1, stack.Count())
	return stack.Plane(0)
}

func TestNormalize_TwoDimensional(t *testing.T) {
	grid := [][]bool{
		{true, false, true},
		{false, true, false},
	}

	stack, err := Normalize(grid)
	require.NoError(t, err)

	// (h, w) becomes (h, w, 1)
	assert.Equal(t, 1, stack.Count())
	assert.Equal(t, 3, stack.Width())
	assert.Equal(t, 2, stack.Height())

	p := stack.Plane(0)
	assert.True(t, p.At(0, 0))
	assert.False(t, p.At(1, 0))
	assert.True(t, p.At(2, 0))
	assert.True(t, p.At(1, 1))
}

func TestNormalize_ThreeDimensional(t *testing.T) {
	// 2x2 with two planes: plane 0 marks the diagonal, plane 1 the rest.
	grid := [][][]bool{
		{{true, false}, {false, true}},
		{{false, true}, {true, false}},
	}

	stack, err := Normalize(grid)
	require.NoError(t, err)
	assert.Equal(t, 2, stack.Count())

	p0, p1 := stack.Plane(0), stack.Plane(1)
	assert.True(t, p0.At(0, 0))
	assert.True(t, p0.At(1, 1))
	assert.False(t, p0.At(1, 0))
	assert.True(t, p1.At(1, 0))
	assert.True(t, p1.At(0, 1))
	assert.False(t, p1.At(0, 0))
}

func TestNormalize_Idempotent(t *testing.T) {
	stack, err := Normalize([][]bool{{true, false}})
	require.NoError(t, err)

	again, err := Normalize(stack)
	require.NoError(t, err)
	assert.Same(t, stack, again)
}

func TestNormalize_RejectsNonBoolean(t *testing.T) {
	_, err := Normalize([][]int{{0, 1}, {1, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[][]int")
}

func TestNormalize_RejectsOneDimensional(t *testing.T) {
	_, err := Normalize([]bool{true, false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1-D")
}

func TestNormalize_RejectsFourDimensional(t *testing.T) {
	_, err := Normalize([][][][]bool{{{{true}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4-D")
}

func TestNormalize_RejectsRaggedRows(t *testing.T) {
	_, err := Normalize([][]bool{
		{true, false, true},
		{false, true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}

func TestPlane_OutOfRangeAccess(t *testing.T) {
	p := NewPlane(2, 2)
	p.Set(0, 0, true)

	assert.False(t, p.At(-1, 0))
	assert.False(t, p.At(0, 5))
	p.Set(10, 10, true) // ignored
	assert.True(t, p.At(0, 0))
}

func TestPlane_Equal(t *testing.T) {
	a := planeFrom(t, "#.", ".#")
	b := planeFrom(t, "#.", ".#")
	c := planeFrom(t, "##", ".#")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal(NewPlane(2, 1)))
}

func TestPlane_Gray(t *testing.T) {
	p := planeFrom(t, "#.", ".#")
	img := p.Gray()

	assert.Equal(t, uint8(255), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), img.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(1, 1).Y)
}
