package ports

import (
	"context"

	"github.com/google/uuid"

	"mainford/internal/core/domain"
)

// ListParams carries a validated list query: equality filters, a single
// sort field, and offset/limit paging. Field names must already have
// passed the allow-list check before reaching the repository.
type ListParams struct {
	Filter    map[string]any
	SortField string
	SortDesc  bool
	Offset    int
	Limit     int
}

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create saves a new user. A uniqueness conflict on email, phone or
	// referral code is reported as domain.ErrDuplicate.
	Create(ctx context.Context, user *domain.User) error

	// GetByID finds a user by ID. Returns domain.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)

	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of users plus the total match count.
	List(ctx context.Context, params ListParams) ([]*domain.User, int, error)

	// CountReferrals counts users directly referred by the given user.
	CountReferrals(ctx context.Context, id uuid.UUID) (int, error)

	// Descendants returns the flat referral subtree below root, each row
	// carrying its parent pointer and depth, bounded by maxDepth.
	Descendants(ctx context.Context, root uuid.UUID, maxDepth int) ([]domain.ReferralRecord, error)
}
