// Package imagepoly turns the opaque pixels of a bitmap into a convex outline
// that can be handed to core.CreatePolygonBody.
package imagepoly

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gekko3d/physics2d/core"
)

// PixelsPerUnit is how many pixels make one world unit at scale 1.
const PixelsPerUnit = 16

var ErrTooFewPixels = errors.New("imagepoly: fewer than three opaque pixels")

// Shape is a convex outline in body-local space together with its area.
type Shape struct {
	Hull []mgl64.Vec2
	Area float64
}

// Parts returns the outline in the form the polygon factory expects.
func (s Shape) Parts() [][]mgl64.Vec2 {
	return [][]mgl64.Vec2{s.Hull}
}

// Load decodes a PNG, BMP or WEBP image and builds its outline.
func Load(r io.Reader, scale float64) (Shape, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Shape{}, fmt.Errorf("imagepoly: decode: %w", err)
	}
	shape, err := FromImage(img, scale)
	if err != nil {
		return Shape{}, fmt.Errorf("%s image: %w", format, err)
	}
	return shape, nil
}

func FromImage(img image.Image, scale float64) (Shape, error) {
	points := Points(img, scale)
	if len(points) < 3 {
		return Shape{}, ErrTooFewPixels
	}
	hull := core.ConvexHull(points)
	if len(hull) < 3 {
		return Shape{}, fmt.Errorf("imagepoly: opaque pixels are collinear")
	}
	return Shape{Hull: hull, Area: core.PolygonArea(hull)}, nil
}

// Points returns one point per pixel with non-zero alpha, centred on the
// image and scaled to world units. Y is flipped so up in the image is +Y.
func Points(img image.Image, scale float64) []mgl64.Vec2 {
	bounds := img.Bounds()
	center := mgl64.Vec2{
		float64(bounds.Min.X) + float64(bounds.Dx())/2,
		float64(bounds.Min.Y) + float64(bounds.Dy())/2,
	}
	k := scale / PixelsPerUnit

	var out []mgl64.Vec2
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			out = append(out, mgl64.Vec2{
				(float64(x) - center.X()) * k,
				(center.Y() - float64(y)) * k,
			})
		}
	}
	return out
}
