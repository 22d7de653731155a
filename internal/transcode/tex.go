package transcode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zlib"
)

// The raw texture container: "TEX" tag, the compressed-texture format byte,
// big-endian u16 width and height, then zlib-deflated RGBA8888 scanlines.
const (
	texHeaderSize = 8
	maxTexEdge    = 8192
)

var texMagic = [3]byte{'T', 'E', 'X'}

func decodeTEX(data []byte) (image.Image, error) {
	width, height, payload, err := parseTextureHeader(data, texMagic)
	if err != nil {
		return nil, err
	}

	inflater, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: tex: %v", ErrDecodeFailed, err)
	}
	defer inflater.Close()

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	if _, err := io.ReadFull(inflater, rgba.Pix); err != nil {
		return nil, fmt.Errorf("%w: tex: truncated pixel data: %v", ErrDecodeFailed, err)
	}
	return rgba, nil
}

func encodeTEX(img image.Image) ([]byte, error) {
	rgba := toRGBA(img)
	bounds := rgba.Bounds()

	var buffer bytes.Buffer
	writeTextureHeader(&buffer, texMagic, bounds.Dx(), bounds.Dy())
	deflater := zlib.NewWriter(&buffer)
	if _, err := deflater.Write(rgba.Pix); err != nil {
		deflater.Close()
		return nil, fmt.Errorf("transcode: tex encode: %w", err)
	}
	if err := deflater.Close(); err != nil {
		return nil, fmt.Errorf("transcode: tex encode: %w", err)
	}
	return buffer.Bytes(), nil
}

// parseTextureHeader validates the shared 8-byte container header and
// returns the declared dimensions and remaining payload.
func parseTextureHeader(data []byte, magic [3]byte) (width, height int, payload []byte, err error) {
	if len(data) < texHeaderSize {
		return 0, 0, nil, fmt.Errorf("%w: %s: short header", ErrDecodeFailed, magic[:])
	}
	if data[0] != magic[0] || data[1] != magic[1] || data[2] != magic[2] {
		return 0, 0, nil, fmt.Errorf("%w: %s: wrong magic %q", ErrDecodeFailed, magic[:], data[:3])
	}
	width = int(binary.BigEndian.Uint16(data[4:6]))
	height = int(binary.BigEndian.Uint16(data[6:8]))
	if width == 0 || height == 0 || width > maxTexEdge || height > maxTexEdge {
		return 0, 0, nil, fmt.Errorf("%w: %s: dimensions %dx%d out of range", ErrDecodeFailed, magic[:], width, height)
	}
	return width, height, data[texHeaderSize:], nil
}

func writeTextureHeader(buffer *bytes.Buffer, magic [3]byte, width, height int) {
	buffer.Write(magic[:])
	buffer.WriteByte(' ')
	var dims [4]byte
	binary.BigEndian.PutUint16(dims[0:2], uint16(width))
	binary.BigEndian.PutUint16(dims[2:4], uint16(height))
	buffer.Write(dims[:])
}
