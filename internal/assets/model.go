package assets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAssetHash indicates a hash that is not 40 lowercase hex characters.
	ErrInvalidAssetHash = errors.New("assets: invalid asset hash")
)

// NormalizeHash validates and canonicalizes a content hash to 40 lowercase
// hex characters.
func NormalizeHash(rawInput string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(rawInput))
	if len(trimmed) != 40 {
		return "", fmt.Errorf("%w: expected 40 hex characters, got %d", ErrInvalidAssetHash, len(trimmed))
	}
	for _, character := range trimmed {
		isHex := (character >= '0' && character <= '9') || (character >= 'a' && character <= 'f')
		if !isHex {
			return "", fmt.Errorf("%w: non-hex character %q", ErrInvalidAssetHash, character)
		}
	}
	return trimmed, nil
}

// AssetRecord is the persisted metadata for one content-addressed blob. The
// identity is the SHA-1 of the canonical payload; core fields are immutable
// after upload. The two cached-conversion columns are write-once per target
// family: the transform is deterministic, so concurrent duplicate writes all
// carry the same value and last-write-wins is safe.
type AssetRecord struct {
	Hash             string              `gorm:"column:hash;primaryKey;size:40;not null"`
	Type             AssetType           `gorm:"column:asset_type;not null"`
	Format           SerializationFormat `gorm:"column:serialization_format;not null"`
	UploaderID       *string             `gorm:"column:uploader_id;size:190;index"`
	UploadedAtSecond int64               `gorm:"column:uploaded_at_s;not null"`
	SizeBytes        int64               `gorm:"column:size_bytes;not null"`
	OriginPlatform   Platform            `gorm:"column:origin_platform;not null;default:0"`
	MainlineIconHash string              `gorm:"column:mainline_icon_hash;size:40;not null;default:''"`
	HandheldIconHash string              `gorm:"column:handheld_icon_hash;size:40;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (AssetRecord) TableName() string {
	return "assets"
}

// CachedConversionHash returns the memoized converted hash for a target
// family, or "" when no conversion has been recorded yet.
func (r *AssetRecord) CachedConversionHash(family ConversionFamily) string {
	if family == FamilyHandheld {
		return r.HandheldIconHash
	}
	return r.MainlineIconHash
}

// SetCachedConversionHash updates the in-memory cache field. Persistence
// goes through Catalog.SetCachedConversionHash.
func (r *AssetRecord) SetCachedConversionHash(family ConversionFamily, hash string) {
	if family == FamilyHandheld {
		r.HandheldIconHash = hash
		return
	}
	r.MainlineIconHash = hash
}

// StoreKey returns the content-store key for the record's source payload,
// namespaced by origin platform.
func (r *AssetRecord) StoreKey() string {
	return r.OriginPlatform.StoreKeyPrefix() + r.Hash
}

// DependencyEdge is one directed edge of an asset's declared dependency
// list. The list is unordered, untyped, and carries no multiplicity; nothing
// guarantees the relation is acyclic, which is why the walker keeps a
// visited set.
type DependencyEdge struct {
	OwnerHash      string `gorm:"column:owner_hash;primaryKey;size:40;not null;index:idx_dependency_owner"`
	DependencyHash string `gorm:"column:dependency_hash;primaryKey;size:40;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DependencyEdge) TableName() string {
	return "asset_dependencies"
}
