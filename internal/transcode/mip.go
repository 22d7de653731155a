package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
)

// The handheld's texture container: same 8-byte header with a "MIP" tag, a
// 256-entry RGBA palette, then 8-bit palette indices swizzled into the
// 16-byte-by-8-row block layout the handheld's VRAM expects. At rest the
// whole container is additionally wrapped by the block cipher in crypt.go.
const (
	mipPaletteEntries = 256
	mipPaletteSize    = mipPaletteEntries * 4
	mipBlockWidth     = 16
	mipBlockHeight    = 8
)

var mipMagic = [3]byte{'M', 'I', 'P'}

func decodeMIP(data []byte) (image.Image, error) {
	width, height, payload, err := parseTextureHeader(data, mipMagic)
	if err != nil {
		return nil, err
	}
	if len(payload) < mipPaletteSize {
		return nil, fmt.Errorf("%w: mip: truncated palette", ErrDecodeFailed)
	}
	paletteBytes := payload[:mipPaletteSize]
	indices := payload[mipPaletteSize:]

	paddedWidth := roundUp(width, mipBlockWidth)
	paddedHeight := roundUp(height, mipBlockHeight)
	if len(indices) < paddedWidth*paddedHeight {
		return nil, fmt.Errorf("%w: mip: truncated pixel data", ErrDecodeFailed)
	}

	linear := unswizzle(indices, paddedWidth, paddedHeight)
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			entry := int(linear[y*paddedWidth+x]) * 4
			destination := rgba.PixOffset(x, y)
			copy(rgba.Pix[destination:destination+4], paletteBytes[entry:entry+4])
		}
	}
	return rgba, nil
}

func encodeMIP(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 || width > maxTexEdge || height > maxTexEdge {
		return nil, fmt.Errorf("transcode: mip encode: dimensions %dx%d out of range", width, height)
	}

	// Quantize to a fixed 256-color palette with error diffusion. The
	// handheld renders icons small enough that a shared palette holds up.
	paletted := image.NewPaletted(image.Rect(0, 0, width, height), palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), img, bounds.Min)

	var buffer bytes.Buffer
	writeTextureHeader(&buffer, mipMagic, width, height)

	paletteBytes := make([]byte, mipPaletteSize)
	for i, entry := range paletted.Palette {
		rgba := color.RGBAModel.Convert(entry).(color.RGBA)
		paletteBytes[i*4+0] = rgba.R
		paletteBytes[i*4+1] = rgba.G
		paletteBytes[i*4+2] = rgba.B
		paletteBytes[i*4+3] = rgba.A
	}
	buffer.Write(paletteBytes)

	paddedWidth := roundUp(width, mipBlockWidth)
	paddedHeight := roundUp(height, mipBlockHeight)
	linear := make([]byte, paddedWidth*paddedHeight)
	for y := 0; y < height; y++ {
		copy(linear[y*paddedWidth:y*paddedWidth+width], paletted.Pix[y*paletted.Stride:y*paletted.Stride+width])
	}
	buffer.Write(swizzle(linear, paddedWidth, paddedHeight))
	return buffer.Bytes(), nil
}

func roundUp(value, multiple int) int {
	return (value + multiple - 1) / multiple * multiple
}

// swizzle reorders a linear 8bpp buffer into 16x8 blocks, the layout the
// handheld GPU reads natively. Dimensions must already be block-aligned.
func swizzle(linear []byte, width, height int) []byte {
	out := make([]byte, len(linear))
	blocksPerRow := width / mipBlockWidth
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			block := (x / mipBlockWidth) + (y/mipBlockHeight)*blocksPerRow
			offset := block*mipBlockWidth*mipBlockHeight + (y%mipBlockHeight)*mipBlockWidth + x%mipBlockWidth
			out[offset] = linear[y*width+x]
		}
	}
	return out
}

// unswizzle is the exact inverse of swizzle.
func unswizzle(swizzled []byte, width, height int) []byte {
	out := make([]byte, width*height)
	blocksPerRow := width / mipBlockWidth
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			block := (x / mipBlockWidth) + (y/mipBlockHeight)*blocksPerRow
			offset := block*mipBlockWidth*mipBlockHeight + (y%mipBlockHeight)*mipBlockWidth + x%mipBlockWidth
			out[y*width+x] = swizzled[offset]
		}
	}
	return out
}
