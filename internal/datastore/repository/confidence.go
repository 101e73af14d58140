package repository

import (
	"context"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// ConfidenceRepository manages confidence indicators, their sets and the
// set membership rows that carry the default flag.
type ConfidenceRepository interface {
	GetOrCreateIndicator(ctx context.Context, label string, level int) (*entities.ConfidenceIndicator, error)

	// CreateSet inserts the set and the membership rows in set.Memberships.
	CreateSet(ctx context.Context, set *entities.ConfidenceIndicatorSet) error

	// GetSet returns a set with Memberships and their indicators loaded.
	GetSet(ctx context.Context, id uint) (*entities.ConfidenceIndicatorSet, error)

	// LockSet re-reads the set row under a write lock where supported.
	LockSet(ctx context.Context, id uint) error

	// Membership returns ErrMembershipNotFound when the indicator is not in the set.
	Membership(ctx context.Context, setID, indicatorID uint) (*entities.ConfidenceIndicatorSetIndicator, error)
	AddMembership(ctx context.Context, m *entities.ConfidenceIndicatorSetIndicator) error
	SetDefault(ctx context.Context, setID, indicatorID uint) error

	SetNameExists(ctx context.Context, name string) (bool, error)
}
