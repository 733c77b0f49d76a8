package imagepoly

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/gekko3d/physics2d/core"
)

func square(size, from, to int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := from; y <= to; y++ {
		for x := from; x <= to; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return img
}

func TestPointsSkipTransparentPixels(t *testing.T) {
	img := square(16, 4, 11)
	points := Points(img, 1)
	assert.Len(t, points, 64)

	box := core.BoundingAABB(points...)
	assert.InDelta(t, -4.0/16, box.Min.X(), 1e-12)
	assert.InDelta(t, 3.0/16, box.Max.X(), 1e-12)
	// Row 4 is the top of the square and maps to +Y.
	assert.InDelta(t, 4.0/16, box.Max.Y(), 1e-12)
}

func TestLoadPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, square(16, 4, 11)))

	shape, err := Load(&buf, 2)
	require.NoError(t, err)
	assert.Len(t, shape.Hull, 4)
	side := 7.0 / 16 * 2
	assert.InDelta(t, side*side, shape.Area, 1e-9)

	b, err := core.CreatePolygonBody(shape.Parts(), shape.Area, mgl64.Vec2{}, 1, false, 0, 0.5, 0.3)
	require.NoError(t, err)
	assert.Equal(t, core.ShapePolygon, b.Shape())
}

func TestLoadBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	shape, err := Load(&buf, 16)
	require.NoError(t, err)
	assert.InDelta(t, 7*3, shape.Area, 1e-9)
}

func TestTooFewPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{A: 255})

	_, err := FromImage(img, 1)
	assert.ErrorIs(t, err, ErrTooFewPixels)

	img.Set(2, 1, color.NRGBA{A: 255})
	img.Set(3, 1, color.NRGBA{A: 255})
	_, err = FromImage(img, 1)
	assert.Error(t, err)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not an image")), 1)
	assert.ErrorIs(t, err, image.ErrFormat)
}
