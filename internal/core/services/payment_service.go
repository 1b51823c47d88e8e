package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

// PaymentService implements the payment ledger: withdrawal requests,
// the status state machine, admin deposits, and statistics.
type PaymentService struct {
	payments ports.PaymentRepository
	users    ports.UserRepository
	bus      ports.EventBus
	log      zerolog.Logger
}

// NewPaymentService wires the ledger.
func NewPaymentService(
	payments ports.PaymentRepository,
	users ports.UserRepository,
	bus ports.EventBus,
	baseLogger *zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		users:    users,
		bus:      bus,
		log:      baseLogger.With().Str("component", "payment_service").Logger(),
	}
}

// RequestWithdrawal creates a requested withdrawal. The balance is not
// deducted here; that happens only at completion.
func (s *PaymentService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount float64) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Balance < amount {
		return nil, domain.ErrInsufficientBalance
	}

	payment := &domain.Payment{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.PaymentWithdrawal,
		Amount:      amount,
		Status:      domain.PaymentRequested,
		RequestDate: time.Now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.bus.Publish(ctx, ports.TopicPaymentRequested, payment); err != nil {
		s.log.Error().Err(err).Msg("Failed to publish withdrawal request event")
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("user_id", userID.String()).
		Float64("amount", amount).
		Msg("Withdrawal requested")
	return payment, nil
}

// SetStatus transitions a requested payment to completed or rejected
// and applies the balance change atomically with the status write.
func (s *PaymentService) SetStatus(ctx context.Context, paymentID uuid.UUID, status domain.PaymentStatus, rejectionReason string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Terminal() {
		return nil, fmt.Errorf("%w: payment is already %s", domain.ErrInvalidTransition, payment.Status)
	}

	var delta float64
	switch status {
	case domain.PaymentRejected:
		if strings.TrimSpace(rejectionReason) == "" {
			return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
		}
		payment.RejectionReason = rejectionReason
		// No balance change for a rejected payment.
	case domain.PaymentCompleted:
		switch payment.Type {
		case domain.PaymentWithdrawal:
			// The repository re-validates the balance inside the
			// transaction; a stale check here would race.
			delta = -payment.Amount
		case domain.PaymentDeposit:
			delta = payment.Amount
		}
	default:
		return nil, fmt.Errorf("%w: unknown target status %q", domain.ErrInvalidTransition, status)
	}

	payment.Status = status
	if err := s.payments.ApplyStatus(ctx, payment, delta); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("status", string(status)).
		Msg("Payment status updated")
	return payment, nil
}

// AddBalance credits a user directly and logs the matching completed
// deposit in the same transaction.
func (s *PaymentService) AddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	payment, err := s.payments.CreditBalance(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("user_id", userID.String()).
		Float64("amount", amount).
		Msg("Balance credited")
	return payment, nil
}

// GetByID loads a payment. A non-admin requester may only see their
// own records.
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID, requester uuid.UUID, admin bool) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && payment.UserID != requester {
		return nil, domain.ErrNotFound
	}
	return payment, nil
}

// Requested returns all payments awaiting review.
func (s *PaymentService) Requested(ctx context.Context) ([]*domain.Payment, error) {
	return s.payments.ListByStatus(ctx, domain.PaymentRequested)
}

// ListAll returns every ledger entry (admin view).
func (s *PaymentService) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	return s.payments.ListAll(ctx)
}

// UserStatistics recomputes the aggregate view over a user's history.
func (s *PaymentService) UserStatistics(ctx context.Context, userID uuid.UUID) (domain.PaymentStatistics, error) {
	payments, err := s.payments.ListByUser(ctx, userID)
	if err != nil {
		return domain.PaymentStatistics{}, err
	}
	return ComputeStatistics(payments, time.Now()), nil
}

// Delete removes a ledger entry (admin record management).
func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.payments.Delete(ctx, id)
}

// PaymentPatch is the admin-side allow-list for record edits. Status is
// deliberately absent: transitions go through SetStatus only.
type PaymentPatch struct {
	Amount *float64
	Type   *domain.PaymentType
}

// UpdateDetails edits amount/type of a payment still awaiting review.
func (s *PaymentService) UpdateDetails(ctx context.Context, id uuid.UUID, patch PaymentPatch) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.Terminal() {
		return nil, fmt.Errorf("%w: cannot edit a %s payment", domain.ErrInvalidTransition, payment.Status)
	}

	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
		}
		payment.Amount = *patch.Amount
	}
	if patch.Type != nil {
		if !domain.ValidPaymentType(*patch.Type) {
			return nil, fmt.Errorf("%w: unknown payment type %q", domain.ErrValidation, *patch.Type)
		}
		payment.Type = *patch.Type
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}
