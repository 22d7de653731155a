package transcode

import (
	"bytes"
	"fmt"
	"image"
	"math/bits"
)

// The console's swizzled texture container: same 8-byte header as TEX with a
// "GTF" tag, then RGBA8888 texels in Morton (Z-order) layout. Dimensions
// must be powers of two; that is a property of the GPU upload path, not a
// choice made here.

var gtfMagic = [3]byte{'G', 'T', 'F'}

func decodeGTF(data []byte) (image.Image, error) {
	width, height, payload, err := parseTextureHeader(data, gtfMagic)
	if err != nil {
		return nil, err
	}
	if bits.OnesCount(uint(width)) != 1 || bits.OnesCount(uint(height)) != 1 {
		return nil, fmt.Errorf("%w: gtf: non-power-of-two dimensions %dx%d", ErrDecodeFailed, width, height)
	}
	if len(payload) < width*height*4 {
		return nil, fmt.Errorf("%w: gtf: truncated pixel data", ErrDecodeFailed)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			source := mortonIndex(x, y, width, height) * 4
			destination := rgba.PixOffset(x, y)
			copy(rgba.Pix[destination:destination+4], payload[source:source+4])
		}
	}
	return rgba, nil
}

func encodeGTF(img image.Image) ([]byte, error) {
	rgba := toRGBA(img)
	width := rgba.Bounds().Dx()
	height := rgba.Bounds().Dy()
	if bits.OnesCount(uint(width)) != 1 || bits.OnesCount(uint(height)) != 1 {
		return nil, fmt.Errorf("transcode: gtf encode: non-power-of-two dimensions %dx%d", width, height)
	}

	var buffer bytes.Buffer
	writeTextureHeader(&buffer, gtfMagic, width, height)
	payload := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			destination := mortonIndex(x, y, width, height) * 4
			source := rgba.PixOffset(x, y)
			copy(payload[destination:destination+4], rgba.Pix[source:source+4])
		}
	}
	buffer.Write(payload)
	return buffer.Bytes(), nil
}

// mortonIndex interleaves the bits of x and y into the Z-order texel index.
// When one dimension runs out of bits, the remaining bits of the other are
// appended high, which keeps the mapping a bijection for rectangular
// power-of-two textures.
func mortonIndex(x, y, width, height int) int {
	index := 0
	shift := 0
	for width > 1 || height > 1 {
		if width > 1 {
			index |= (x & 1) << shift
			x >>= 1
			width >>= 1
			shift++
		}
		if height > 1 {
			index |= (y & 1) << shift
			y >>= 1
			height >>= 1
			shift++
		}
	}
	return index
}
