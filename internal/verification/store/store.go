// Package store persists verification records keyed by website. Three
// backends share one interface: an in-memory map for tests and development,
// Redis for single-region deployments, and Postgres where records must
// survive cache loss.
package store

import (
	"context"

	"proovd/internal/verification/models"
	"proovd/pkg/domain"
)

// Store is the persistence contract the verification service depends on.
// Get returns sentinel.ErrNotFound (wrapped) when no record exists for the
// website.
type Store interface {
	Get(ctx context.Context, websiteID domain.WebsiteID) (*models.VerificationRecord, error)
	Save(ctx context.Context, record *models.VerificationRecord) error
	Delete(ctx context.Context, websiteID domain.WebsiteID) error
	Health(ctx context.Context) error
}
