package transcode

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 0xff})
		}
	}
	return img
}

func TestTEXRoundTrip(t *testing.T) {
	source := gradientImage(33, 17)
	encoded, err := encodeTEX(source)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.HasPrefix(encoded, []byte("TEX ")) {
		t.Fatalf("unexpected header %q", encoded[:4])
	}

	decoded, err := decodeTEX(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rgba := decoded.(*image.RGBA)
	if !bytes.Equal(rgba.Pix, source.Pix) {
		t.Fatalf("pixel data changed across round trip")
	}
}

func TestDecodeTEXRejectsGarbage(t *testing.T) {
	if _, err := decodeTEX([]byte("TEX \x00\x10\x00\x10not-zlib")); err == nil {
		t.Fatalf("expected error for corrupt deflate stream")
	}
	if _, err := decodeTEX([]byte("XXX \x00\x10\x00\x10")); err == nil {
		t.Fatalf("expected error for wrong magic")
	}
	if _, err := decodeTEX([]byte("TE")); err == nil {
		t.Fatalf("expected error for short header")
	}
}

func TestGTFRoundTrip(t *testing.T) {
	source := gradientImage(64, 16)
	encoded, err := encodeGTF(source)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := decodeGTF(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rgba := decoded.(*image.RGBA)
	if !bytes.Equal(rgba.Pix, source.Pix) {
		t.Fatalf("pixel data changed across round trip")
	}
}

func TestGTFRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := encodeGTF(gradientImage(48, 16)); err == nil {
		t.Fatalf("expected encode error for 48px width")
	}
}

func TestMortonIndexIsBijective(t *testing.T) {
	const width, height = 32, 8
	seen := map[int]bool{}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			index := mortonIndex(x, y, width, height)
			if index < 0 || index >= width*height {
				t.Fatalf("index %d out of range for (%d,%d)", index, x, y)
			}
			if seen[index] {
				t.Fatalf("index %d assigned twice", index)
			}
			seen[index] = true
		}
	}
}

func TestSwizzleRoundTrip(t *testing.T) {
	const width, height = 32, 16
	linear := make([]byte, width*height)
	for i := range linear {
		linear[i] = byte(i * 13)
	}
	if got := unswizzle(swizzle(linear, width, height), width, height); !bytes.Equal(got, linear) {
		t.Fatalf("swizzle round trip changed data")
	}
}

func TestMIPRoundTripPreservesPaletteColors(t *testing.T) {
	// Solid black with a white block: both colors are exact palette
	// entries, so quantization is lossless for this input.
	source := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				source.SetRGBA(x, y, color.RGBA{A: 0xff})
			} else {
				source.SetRGBA(x, y, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
			}
		}
	}

	encoded, err := encodeMIP(source)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodeMIP(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	rgba := decoded.(*image.RGBA)
	if rgba.Bounds() != source.Bounds() {
		t.Fatalf("bounds %v, want %v", rgba.Bounds(), source.Bounds())
	}
	if got := rgba.RGBAAt(0, 0); got != (color.RGBA{A: 0xff}) {
		t.Fatalf("corner pixel %v, want black", got)
	}
	if got := rgba.RGBAAt(31, 23); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Fatalf("corner pixel %v, want white", got)
	}
}

func TestDecodeMIPRejectsTruncatedPayload(t *testing.T) {
	encoded, err := encodeMIP(gradientImage(16, 8))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := decodeMIP(encoded[:texHeaderSize+100]); err == nil {
		t.Fatalf("expected error for truncated palette")
	}
}

func TestTextureBlobEncryptionRoundTrip(t *testing.T) {
	plain := []byte("handheld texture container payload")
	sealed, err := encryptTextureBlob(plain)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatalf("ciphertext contains plaintext")
	}

	opened, err := decryptTextureBlob(sealed)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("round trip changed payload")
	}
}

func TestTextureBlobEncryptionIsDeterministic(t *testing.T) {
	plain := []byte("same input, same output")
	first, err := encryptTextureBlob(plain)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	second, err := encryptTextureBlob(plain)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("encryption not deterministic")
	}
}

func TestDecryptTextureBlobDetectsTampering(t *testing.T) {
	sealed, err := encryptTextureBlob([]byte("payload under test"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0x01
	if _, err := decryptTextureBlob(sealed); err == nil {
		t.Fatalf("expected error for tampered ciphertext")
	}
}

func TestDecodeTGAUncompressed(t *testing.T) {
	// 2x2 true-color 32bpp, bottom-up: file rows are bottom row first,
	// pixels stored BGRA.
	header := make([]byte, 18)
	header[2] = tgaTypeTrueColor
	header[12] = 2
	header[14] = 2
	header[16] = 32
	pixels := []byte{
		// bottom row: blue, green
		0xff, 0x00, 0x00, 0xff, 0x00, 0xff, 0x00, 0xff,
		// top row: red, white
		0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}

	decoded, err := decodeTGA(append(header, pixels...))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rgba := decoded.(*image.RGBA)
	if got := rgba.RGBAAt(0, 0); got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Fatalf("top-left %v, want red", got)
	}
	if got := rgba.RGBAAt(0, 1); got != (color.RGBA{B: 0xff, A: 0xff}) {
		t.Fatalf("bottom-left %v, want blue", got)
	}
}

func TestDecodeTGARunLength(t *testing.T) {
	// 4x1 RLE 24bpp: one run packet of 4 red pixels.
	header := make([]byte, 18)
	header[2] = tgaTypeRLETrueColor
	header[12] = 4
	header[14] = 1
	header[16] = 24
	payload := []byte{0x83, 0x00, 0x00, 0xff}

	decoded, err := decodeTGA(append(header, payload...))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rgba := decoded.(*image.RGBA)
	for x := 0; x < 4; x++ {
		if got := rgba.RGBAAt(x, 0); got != (color.RGBA{R: 0xff, A: 0xff}) {
			t.Fatalf("pixel %d = %v, want opaque red", x, got)
		}
	}
}

func TestDecodeTGARejectsUnsupportedVariants(t *testing.T) {
	header := make([]byte, 18)
	header[1] = 1 // color-mapped
	header[2] = 1
	header[12] = 1
	header[14] = 1
	header[16] = 8
	if _, err := decodeTGA(header); err == nil {
		t.Fatalf("expected error for color-mapped image")
	}
}
