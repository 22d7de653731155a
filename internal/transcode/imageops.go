package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	minIconEdge = 16
	maxIconEdge = 256
	// Icon edges are rounded to a multiple of 16 for the handheld's texture
	// unit; applied to every target so both families share one geometry.
	iconEdgeMultiple = 16
)

// iconGeometry captures the transform decision for an icon conversion.
type iconGeometry struct {
	// noop means the source is already square and small enough.
	noop bool
	// crop is the centered square region taken from the source.
	crop image.Rectangle
	// edge is the final output edge length after clamp and rounding.
	edge int
}

// computeIconGeometry decides the crop rectangle and target edge for a
// source of the given dimensions. Sources already square and at most 256px
// need no transform at all.
func computeIconGeometry(width, height int) iconGeometry {
	if width == height && width <= maxIconEdge {
		return iconGeometry{noop: true}
	}

	square := width
	if height < square {
		square = height
	}
	// Center the square on the longer axis's midpoint.
	x0 := (width - square) / 2
	y0 := (height - square) / 2
	crop := image.Rect(x0, y0, x0+square, y0+square)

	edge := square
	if edge > maxIconEdge {
		edge = maxIconEdge
	}
	edge = ((edge + iconEdgeMultiple/2) / iconEdgeMultiple) * iconEdgeMultiple
	if edge < minIconEdge {
		edge = minIconEdge
	}
	if edge > maxIconEdge {
		edge = maxIconEdge
	}
	return iconGeometry{crop: crop, edge: edge}
}

// cropAndResize applies the geometry to the source image, producing a square
// RGBA output of geometry.edge pixels.
func cropAndResize(source image.Image, geometry iconGeometry) *image.RGBA {
	crop := geometry.crop.Add(source.Bounds().Min)
	output := image.NewRGBA(image.Rect(0, 0, geometry.edge, geometry.edge))
	xdraw.CatmullRom.Scale(output, output.Bounds(), source, crop, xdraw.Src, nil)
	return output
}

func decodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrDecodeFailed, err)
	}
	return img, nil
}

func decodeJPEG(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: jpeg: %v", ErrDecodeFailed, err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return nil, fmt.Errorf("transcode: png encode: %w", err)
	}
	return buffer.Bytes(), nil
}

// toRGBA normalizes any decoded image to RGBA for the container encoders.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	return rgba
}
