package partner

import (
	"context"

	"github.com/google/uuid"
)

// PartyFilter selects parties for the directory listing
type PartyFilter struct {
	Type            PartyType
	IncludeInactive bool
	Search          string
	Page            int
	PageSize        int
}

// PartyRepository reads the party directory.
// FindByID never filters on IsActive.
type PartyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)
	List(ctx context.Context, filter PartyFilter) ([]Party, int64, error)
	Save(ctx context.Context, party *Party) error
}
