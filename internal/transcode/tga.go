package transcode

import (
	"encoding/binary"
	"fmt"
	"image"
)

// Minimal TGA decoder: true-color (type 2) and RLE true-color (type 10),
// 24 or 32 bits per pixel, either vertical orientation. That covers every
// TGA the original clients ever produced; color-mapped and grayscale
// variants are rejected.
const tgaHeaderSize = 18

const (
	tgaTypeTrueColor    = 2
	tgaTypeRLETrueColor = 10
)

func decodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: tga: short header", ErrDecodeFailed)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(binary.LittleEndian.Uint16(data[12:14]))
	height := int(binary.LittleEndian.Uint16(data[14:16]))
	depth := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: tga: color-mapped images unsupported", ErrDecodeFailed)
	}
	if imageType != tgaTypeTrueColor && imageType != tgaTypeRLETrueColor {
		return nil, fmt.Errorf("%w: tga: image type %d unsupported", ErrDecodeFailed, imageType)
	}
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("%w: tga: %d bpp unsupported", ErrDecodeFailed, depth)
	}
	if width == 0 || height == 0 || width > maxTexEdge || height > maxTexEdge {
		return nil, fmt.Errorf("%w: tga: dimensions %dx%d out of range", ErrDecodeFailed, width, height)
	}

	pixelBytes := depth / 8
	payload := data[tgaHeaderSize:]
	if len(payload) < idLength {
		return nil, fmt.Errorf("%w: tga: truncated id field", ErrDecodeFailed)
	}
	payload = payload[idLength:]

	var pixels []byte
	var err error
	if imageType == tgaTypeRLETrueColor {
		pixels, err = expandTGARunLength(payload, width*height, pixelBytes)
		if err != nil {
			return nil, err
		}
	} else {
		if len(payload) < width*height*pixelBytes {
			return nil, fmt.Errorf("%w: tga: truncated pixel data", ErrDecodeFailed)
		}
		pixels = payload
	}

	// Bit 5 of the descriptor selects top-to-bottom row order; the default
	// TGA layout is bottom-up.
	topDown := descriptor&0x20 != 0

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		sourceRow := row
		if !topDown {
			sourceRow = height - 1 - row
		}
		for x := 0; x < width; x++ {
			source := (sourceRow*width + x) * pixelBytes
			destination := rgba.PixOffset(x, row)
			rgba.Pix[destination+0] = pixels[source+2]
			rgba.Pix[destination+1] = pixels[source+1]
			rgba.Pix[destination+2] = pixels[source+0]
			if pixelBytes == 4 {
				rgba.Pix[destination+3] = pixels[source+3]
			} else {
				rgba.Pix[destination+3] = 0xff
			}
		}
	}
	return rgba, nil
}

// expandTGARunLength decodes RLE packets into a flat BGR(A) pixel buffer.
func expandTGARunLength(payload []byte, pixelCount, pixelBytes int) ([]byte, error) {
	out := make([]byte, 0, pixelCount*pixelBytes)
	offset := 0
	for len(out) < pixelCount*pixelBytes {
		if offset >= len(payload) {
			return nil, fmt.Errorf("%w: tga: truncated rle stream", ErrDecodeFailed)
		}
		header := payload[offset]
		offset++
		count := int(header&0x7f) + 1
		if header&0x80 != 0 {
			// Run packet: one pixel value repeated count times.
			if offset+pixelBytes > len(payload) {
				return nil, fmt.Errorf("%w: tga: truncated rle run", ErrDecodeFailed)
			}
			pixel := payload[offset : offset+pixelBytes]
			offset += pixelBytes
			for i := 0; i < count; i++ {
				out = append(out, pixel...)
			}
		} else {
			// Raw packet: count literal pixels.
			size := count * pixelBytes
			if offset+size > len(payload) {
				return nil, fmt.Errorf("%w: tga: truncated rle literals", ErrDecodeFailed)
			}
			out = append(out, payload[offset:offset+size]...)
			offset += size
		}
	}
	return out[:pixelCount*pixelBytes], nil
}
