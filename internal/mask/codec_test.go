package mask

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/edkvist/maskann/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := map[string]*Plane{
		"single pixel": planeFrom(t, "....", "..#.", "...."),
		"all false":    planeFrom(t, "....", "...."),
		"all true":     planeFrom(t, "###", "###", "###"),
		"checkered":    planeFrom(t, "#.#.", ".#.#", "#.#."),
		"single row":   planeFrom(t, "#..##..#"),
		"single col":   planeFrom(t, "#", ".", "#"),
		"wide":         planeFrom(t, strings.Repeat("#.", 50), strings.Repeat(".#", 50)),
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			uri, err := EncodeDataURI(p)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(uri, DataURIPrefix))

			decoded, err := DecodeDataURI(uri)
			require.NoError(t, err)
			assert.True(t, p.Equal(decoded), "decoded plane differs from original")
		})
	}
}

func TestEncodeDataURI_OneBitDepth(t *testing.T) {
	p := planeFrom(t, "#.", ".#")

	uri, err := EncodeDataURI(p)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, DataURIPrefix))
	require.NoError(t, err)

	// PNG IHDR: width(4) height(4) bit-depth(1) at offsets 16..24.
	require.Greater(t, len(raw), 25)
	assert.Equal(t, byte(1), raw[24], "expected bit depth 1")

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestEncodeDataURI_RejectsZeroSize(t *testing.T) {
	_, err := EncodeDataURI(NewPlane(0, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x0")
}

func TestCreateUploadable(t *testing.T) {
	grid := [][]bool{
		{false, false, false, false},
		{false, true, true, false},
		{false, true, true, false},
		{false, false, false, false},
	}

	up, err := CreateUploadable(grid, 7)
	require.NoError(t, err)

	assert.Equal(t, models.KindMask, up.Type)
	assert.Equal(t, models.FormatOneBit, up.Format)
	assert.Equal(t, 7, up.ClassID)

	require.NotNil(t, up.Annotation)
	assert.Equal(t, 4, up.Annotation.Width)
	assert.Equal(t, 4, up.Annotation.Height)
	assert.Nil(t, up.Annotation.Score)
	assert.Equal(t, models.ROI{XMin: 1, XMax: 2, YMin: 1, YMax: 2, Width: 1, Height: 1}, up.Annotation.ROI)

	decoded, err := DecodeDataURI(up.Annotation.Mask)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := x >= 1 && x <= 2 && y >= 1 && y <= 2
			assert.Equal(t, want, decoded.At(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestCreateUploadable_EmptyMaskROI(t *testing.T) {
	up, err := CreateUploadable([][]bool{{false, false}, {false, false}}, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ROI{}, up.Annotation.ROI)
}

func TestCreateUploadable_RejectsNonBoolean(t *testing.T) {
	_, err := CreateUploadable([][]int{{1, 0}}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[][]int")
}

func TestCreateUploadable_RejectsWrongShape(t *testing.T) {
	_, err := CreateUploadable([]bool{true}, 1)
	assert.Error(t, err)

	_, err = CreateUploadable([][][][]bool{{{{true}}}}, 1)
	assert.Error(t, err)

	// A multi-plane stack is not a single plane.
	_, err = CreateUploadable([][][]bool{{{true, false}}}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single mask plane")
}

func TestDecodeDataURI_RejectsWrongPrefix(t *testing.T) {
	_, err := DecodeDataURI("data:image/jpeg;base64,AAAA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data URI")
}

func TestDecodeDataURI_RejectsBadBase64(t *testing.T) {
	_, err := DecodeDataURI(DataURIPrefix + "%%%not-base64%%%")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64")
}

func TestDecodeDataURI_RejectsNonPNGPayload(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("not a png"))
	_, err := DecodeDataURI(DataURIPrefix + payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "png")
}
