package users

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the session did not contain a usable subject.
var ErrInvalidIdentity = errors.New("users: invalid identity")

// ServiceConfig describes the dependencies required for uploader resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages canonical uploader identifiers across platform logins.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// ResolveCanonicalUploaderID returns the canonical uploader id for a
// platform login subject, minting a new identity mapping when the pair has
// not been seen before.
func (s *Service) ResolveCanonicalUploaderID(platform, subject string) (string, error) {
	platform = strings.TrimSpace(strings.ToLower(platform))
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrInvalidIdentity
	}
	if platform == "" {
		platform = "mainline"
	}

	cacheKey := platform + ":" + subject
	if cached, ok := s.cache.Load(cacheKey); ok {
		if uploaderID, ok := cached.(string); ok {
			return uploaderID, nil
		}
	}

	var identity Identity
	err := s.db.Where("platform = ? AND subject = ?", platform, subject).Take(&identity).Error
	if err == nil {
		s.cache.Store(cacheKey, identity.UploaderID)
		return identity.UploaderID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("users: identity lookup: %w", err)
	}

	minted, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("users: mint uploader id: %w", err)
	}
	identity = Identity{
		Platform:   platform,
		Subject:    subject,
		UploaderID: minted.String(),
		LastSeenAt: s.now().UTC(),
	}
	if err := s.db.Create(&identity).Error; err != nil {
		// A concurrent request may have created the row first; re-read and
		// use whichever id won.
		var existing Identity
		if lookupErr := s.db.Where("platform = ? AND subject = ?", platform, subject).Take(&existing).Error; lookupErr == nil {
			s.cache.Store(cacheKey, existing.UploaderID)
			return existing.UploaderID, nil
		}
		return "", fmt.Errorf("users: identity insert: %w", err)
	}

	s.cache.Store(cacheKey, identity.UploaderID)
	return identity.UploaderID, nil
}
