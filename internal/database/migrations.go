package database

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillOriginPlatform = "2026-07-14_backfill_origin_platform"

// migrationRecord is one row of the applied-migration ledger. AutoMigrate
// handles additive schema changes; anything touching existing rows goes
// through a named migration so it runs exactly once per database.
type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type schemaMigration struct {
	name  string
	apply func(*gorm.DB) error
}

var schemaMigrations = []schemaMigration{
	{name: migrationBackfillOriginPlatform, apply: backfillOriginPlatform},
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	for _, migration := range schemaMigrations {
		applied, err := migrationApplied(db, migration.name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := migration.apply(db); err != nil {
			return fmt.Errorf("database: migration %s: %w", migration.name, err)
		}
		ledgerEntry := migrationRecord{Name: migration.name, AppliedAtSeconds: time.Now().UTC().Unix()}
		if err := db.Create(&ledgerEntry).Error; err != nil {
			return fmt.Errorf("database: record migration %s: %w", migration.name, err)
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func migrationApplied(db *gorm.DB, name string) (bool, error) {
	var record migrationRecord
	err := db.Where("name = ?", name).Take(&record).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// Rows imported before origin tracking landed carry NULL platforms; they are
// all mainline by definition since the handheld importer came later.
func backfillOriginPlatform(db *gorm.DB) error {
	return db.Exec("UPDATE assets SET origin_platform = 0 WHERE origin_platform IS NULL;").Error
}
