package assets

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// rawHash is a decoded SHA-1. Keying the membership set by a fixed-size byte
// array instead of the hex string halves the memory per entry and lets the
// map hash raw bytes; at hundreds of thousands of manifest entries that is
// worth keeping.
type rawHash [20]byte

// VanillaOracle answers whether a content hash is byte-for-byte identical to
// an asset shipped with the unmodified game. It is loaded once at process
// start and never mutated, so concurrent reads need no synchronization.
type VanillaOracle struct {
	hashes map[rawHash]struct{}
}

// NewVanillaOracle builds an oracle from decoded hashes. Used directly by
// tests; production code goes through LoadVanillaManifest.
func NewVanillaOracle(hashes []rawHash) *VanillaOracle {
	set := make(map[rawHash]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return &VanillaOracle{hashes: set}
}

// IsVanilla reports whether the lowercase-hex hash is in the shipped-asset
// set. Malformed or non-SHA-1-length input is simply not vanilla.
func (o *VanillaOracle) IsVanilla(hexHash string) bool {
	if o == nil || len(hexHash) != 40 {
		return false
	}
	var raw rawHash
	if _, err := hex.Decode(raw[:], []byte(hexHash)); err != nil {
		return false
	}
	_, ok := o.hashes[raw]
	return ok
}

// Len returns the number of manifest entries, for startup logging.
func (o *VanillaOracle) Len() int {
	if o == nil {
		return 0
	}
	return len(o.hashes)
}

// LoadVanillaManifest reads a bundled manifest of one lowercase hex SHA-1
// per line. Blank lines and lines starting with '#' are skipped; anything
// else that does not decode to 20 bytes is a malformed manifest.
func LoadVanillaManifest(path string) (*VanillaOracle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open vanilla manifest: %w", err)
	}
	defer file.Close()

	oracle, err := ReadVanillaManifest(file)
	if err != nil {
		return nil, fmt.Errorf("assets: vanilla manifest %s: %w", path, err)
	}
	return oracle, nil
}

// ReadVanillaManifest parses manifest lines from an arbitrary reader.
func ReadVanillaManifest(reader io.Reader) (*VanillaOracle, error) {
	set := make(map[rawHash]struct{})
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) != 40 {
			return nil, fmt.Errorf("line %d: expected 40 hex characters, got %d", lineNumber, len(line))
		}
		var raw rawHash
		if _, err := hex.Decode(raw[:], []byte(line)); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		set[raw] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &VanillaOracle{hashes: set}, nil
}
