package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	ErrAssetExists     = errors.New("assets: asset already recorded")
	noOpLogger         = zap.NewNop()
)

// CatalogError wraps a failed catalog operation with a dotted operation code
// usable for log aggregation.
type CatalogError struct {
	code string
	err  error
}

func (e *CatalogError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *CatalogError) Unwrap() error {
	return e.err
}

func (e *CatalogError) Code() string {
	return e.code
}

const (
	opCatalogNew      = "catalog.new"
	opCreateAsset     = "catalog.create_asset"
	opGetAsset        = "catalog.get_asset"
	opGetDependencies = "catalog.get_dependencies"
	opSetCachedHash   = "catalog.set_cached_conversion_hash"
)

func newCatalogError(operation, reason string, cause error) error {
	return &CatalogError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// CatalogConfig describes the dependencies of the asset catalog.
type CatalogConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Catalog persists asset records and dependency edges and serves them back
// to the classification and transcoding layers.
type Catalog struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewCatalog constructs the catalog service.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	if cfg.Database == nil {
		return nil, newCatalogError(opCatalogNew, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Catalog{db: cfg.Database, clock: clock, logger: logger}, nil
}

// CreateRequest carries the upload-time facts for a new asset.
type CreateRequest struct {
	Hash             string
	Type             AssetType
	Format           SerializationFormat
	UploaderID       *string
	SizeBytes        int64
	OriginPlatform   Platform
	DependencyHashes []string
}

// CreateAsset records a freshly uploaded asset and its declared dependency
// edges. Re-uploading an existing hash returns ErrAssetExists; content
// addressing makes the stored record authoritative.
func (c *Catalog) CreateAsset(ctx context.Context, request CreateRequest) (*AssetRecord, error) {
	hash, err := NormalizeHash(request.Hash)
	if err != nil {
		return nil, newCatalogError(opCreateAsset, "invalid_hash", err)
	}

	record := &AssetRecord{
		Hash:             hash,
		Type:             request.Type,
		Format:           request.Format,
		UploaderID:       request.UploaderID,
		UploadedAtSecond: c.clock().UTC().Unix(),
		SizeBytes:        request.SizeBytes,
		OriginPlatform:   request.OriginPlatform,
	}

	txErr := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing AssetRecord
		err := tx.Where("hash = ?", hash).Take(&existing).Error
		if err == nil {
			return ErrAssetExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return newCatalogError(opCreateAsset, "lookup_failed", err)
		}
		if err := tx.Create(record).Error; err != nil {
			return newCatalogError(opCreateAsset, "insert_failed", err)
		}
		for _, dependency := range request.DependencyHashes {
			dependencyHash, err := NormalizeHash(dependency)
			if err != nil {
				return newCatalogError(opCreateAsset, "invalid_dependency_hash", err)
			}
			if dependencyHash == hash {
				// Self-edges add nothing and would only exercise the
				// walker's cycle guard.
				continue
			}
			edge := DependencyEdge{OwnerHash: hash, DependencyHash: dependencyHash}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return newCatalogError(opCreateAsset, "edge_insert_failed", err)
			}
		}
		return nil
	})
	if txErr != nil {
		if !errors.Is(txErr, ErrAssetExists) {
			c.logError(opCreateAsset, txErr, zap.String("hash", hash))
		}
		return nil, txErr
	}

	c.logger.Info("asset recorded",
		zap.String("hash", hash),
		zap.Int64("size_bytes", request.SizeBytes),
		zap.Int("dependencies", len(request.DependencyHashes)))
	return record, nil
}

// GetAssetByHash returns the record for a hash, or (nil, nil) when the hash
// is unknown. Missing assets are an expected condition for the walker, not
// an error.
func (c *Catalog) GetAssetByHash(ctx context.Context, rawHash string) (*AssetRecord, error) {
	hash, err := NormalizeHash(rawHash)
	if err != nil {
		return nil, newCatalogError(opGetAsset, "invalid_hash", err)
	}
	var record AssetRecord
	if err := c.db.WithContext(ctx).Where("hash = ?", hash).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		c.logError(opGetAsset, err, zap.String("hash", hash))
		return nil, newCatalogError(opGetAsset, "query_failed", err)
	}
	return &record, nil
}

// GetDependencyHashes returns the declared dependency hashes of an asset.
func (c *Catalog) GetDependencyHashes(ctx context.Context, ownerHash string) ([]string, error) {
	var edges []DependencyEdge
	if err := c.db.WithContext(ctx).
		Where("owner_hash = ?", ownerHash).
		Order("dependency_hash").
		Find(&edges).Error; err != nil {
		c.logError(opGetDependencies, err, zap.String("hash", ownerHash))
		return nil, newCatalogError(opGetDependencies, "query_failed", err)
	}
	hashes := make([]string, 0, len(edges))
	for _, edge := range edges {
		hashes = append(hashes, edge.DependencyHash)
	}
	return hashes, nil
}

// SetCachedConversionHash persists the memoized converted hash for a target
// family. The conversion is deterministic, so concurrent writers always
// carry the same value and the unconditional update is idempotent.
func (c *Catalog) SetCachedConversionHash(ctx context.Context, record *AssetRecord, family ConversionFamily, convertedHash string) error {
	column := "mainline_icon_hash"
	if family == FamilyHandheld {
		column = "handheld_icon_hash"
	}
	if err := c.db.WithContext(ctx).
		Model(&AssetRecord{}).
		Where("hash = ?", record.Hash).
		Update(column, convertedHash).Error; err != nil {
		c.logError(opSetCachedHash, err,
			zap.String("hash", record.Hash),
			zap.String("family", family.String()))
		return newCatalogError(opSetCachedHash, "update_failed", err)
	}
	record.SetCachedConversionHash(family, convertedHash)
	return nil
}

func (c *Catalog) logError(operation string, err error, fields ...zap.Field) {
	attrs := append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)
	c.logger.Error("asset catalog error", attrs...)
}
