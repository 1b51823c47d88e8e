package ports

import (
	"context"

	"github.com/google/uuid"

	"mainford/internal/core/domain"
)

// PaymentRepository defines the persistence operations for the ledger.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID returns domain.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// ListByUser returns the user's full history, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)

	// ListByStatus returns all payments in the given status, newest first.
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)

	// ListAll returns every payment, newest request first.
	ListAll(ctx context.Context) ([]*domain.Payment, error)

	Update(ctx context.Context, payment *domain.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ApplyStatus persists a status transition and the matching balance
	// change in one transaction. balanceDelta is added to the owning
	// user's balance, guarded so it can never go negative; a failed
	// guard is reported as domain.ErrInsufficientBalance.
	ApplyStatus(ctx context.Context, payment *domain.Payment, balanceDelta float64) error

	// CreditBalance credits amount to the user and records a completed
	// deposit, both in one transaction. Returns the created payment.
	CreditBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.Payment, error)
}
