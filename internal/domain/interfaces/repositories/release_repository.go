// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/pie/internal/domain/entities"
)

// ReleaseRepository defines the interface for accessing the release index
type ReleaseRepository interface {
	// Index returns the release index. Implementations load the backing
	// table at most once per process and serve it from memory afterwards.
	Index(ctx context.Context) (*entities.ReleaseIndex, error)
}
