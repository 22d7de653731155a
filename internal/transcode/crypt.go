package transcode

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"fmt"
)

// Handheld texture payloads are stored encrypted: AES-128-CBC with the fixed
// key material the client firmware ships. The IV is derived from the SHA-1
// of the plaintext and prepended to the ciphertext, which keeps the whole
// wrap deterministic. Content addressing requires that: two conversions of
// the same source must produce the same stored bytes.
var handheldTextureKey = [16]byte{
	0x2a, 0xc1, 0x5e, 0x93, 0x07, 0x6c, 0xd8, 0x4f,
	0xb1, 0x38, 0xea, 0x25, 0x90, 0x4d, 0x77, 0x0b,
}

func encryptTextureBlob(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(handheldTextureKey[:])
	if err != nil {
		return nil, fmt.Errorf("transcode: texture cipher: %w", err)
	}

	digest := sha1.Sum(plain)
	iv := digest[:aes.BlockSize]

	padded := padPKCS7(plain, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

func decryptTextureBlob(data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize*2 || (len(data)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("transcode: texture blob: bad length %d", len(data))
	}
	block, err := aes.NewCipher(handheldTextureKey[:])
	if err != nil {
		return nil, fmt.Errorf("transcode: texture cipher: %w", err)
	}

	iv := data[:aes.BlockSize]
	padded := make([]byte, len(data)-aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, data[aes.BlockSize:])

	plain, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	// The IV doubles as an integrity check on the decrypted payload.
	digest := sha1.Sum(plain)
	if !bytes.Equal(digest[:aes.BlockSize], iv) {
		return nil, fmt.Errorf("transcode: texture blob: digest mismatch")
	}
	return plain, nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("transcode: texture blob: bad padded length %d", len(data))
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("transcode: texture blob: bad padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("transcode: texture blob: bad padding")
		}
	}
	return data[:len(data)-padding], nil
}
