package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

type paymentRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.PaymentRepository = (*paymentRepository)(nil) // Ensure compliance

// NewPaymentRepository creates a new repository for ledger operations.
func NewPaymentRepository(db *DB, baseLogger *zerolog.Logger) ports.PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: baseLogger.With().Str("component", "payment_repo").Logger(),
	}
}

const paymentQueryCols = `
	id, user_id, type, amount, status, rejection_reason, request_date, created_at, updated_at
`

// Create saves a new ledger entry.
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, type, amount, status, rejection_reason, request_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.pool.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Type,
		payment.Amount,
		payment.Status,
		payment.RejectionReason,
		payment.RequestDate,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", payment.UserID.String()).Msg("Failed to insert payment")
	}
	return err
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Type,
		&p.Amount,
		&p.Status,
		&p.RejectionReason,
		&p.RequestDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByID finds a payment by ID.
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentQueryCols + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.pool.QueryRow(ctx, query, id))
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query payments")
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to scan payment row")
			return nil, err
		}
		payments = append(payments, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return payments, nil
}

// ListByUser returns the user's full history, newest request first.
func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentQueryCols + ` FROM payments WHERE user_id = $1 ORDER BY request_date DESC`
	return r.list(ctx, query, userID)
}

// ListByStatus returns all payments in a given status, newest first.
func (r *paymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentQueryCols + ` FROM payments WHERE status = $1 ORDER BY request_date DESC`
	return r.list(ctx, query, status)
}

// ListAll returns every payment, newest request first.
func (r *paymentRepository) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentQueryCols + ` FROM payments ORDER BY request_date DESC`
	return r.list(ctx, query)
}

// Update persists the mutable payment fields.
func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments SET type = $2, amount = $3, status = $4, rejection_reason = $5, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.pool.Exec(ctx, query,
		payment.ID, payment.Type, payment.Amount, payment.Status, payment.RejectionReason)
	if err != nil {
		r.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("Failed to update payment")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a payment record.
func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx, "DELETE FROM payments WHERE id = $1", id)
	if err != nil {
		r.log.Error().Err(err).Str("payment_id", id.String()).Msg("Failed to delete payment")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyStatus writes the status transition and the balance change in a
// single transaction. The balance guard lives inside the UPDATE so two
// concurrent approvals cannot both pass a stale check.
func (r *paymentRepository) ApplyStatus(ctx context.Context, payment *domain.Payment, balanceDelta float64) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if balanceDelta != 0 {
		tag, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance + $1, updated_at = NOW()
			 WHERE id = $2 AND balance + $1 >= 0`,
			balanceDelta, payment.UserID)
		if err != nil {
			r.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("Failed to apply balance delta")
			return err
		}
		if tag.RowsAffected() == 0 {
			// Either the user is gone or the guard failed. Distinguish.
			var exists bool
			if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", payment.UserID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrInsufficientBalance
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE payments SET status = $2, rejection_reason = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		payment.ID, payment.Status, payment.RejectionReason, domain.PaymentRequested)
	if err != nil {
		r.log.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("Failed to update payment status")
		return err
	}
	if tag.RowsAffected() == 0 {
		// The payment left the requested state under us.
		return domain.ErrInvalidTransition
	}

	return tx.Commit(ctx)
}

// CreditBalance credits a user and records the matching completed
// deposit atomically.
func (r *paymentRepository) CreditBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.Payment, error) {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE users SET balance = balance + $1, updated_at = NOW() WHERE id = $2",
		amount, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to credit balance")
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	payment := &domain.Payment{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.PaymentDeposit,
		Amount:      amount,
		Status:      domain.PaymentCompleted,
		RequestDate: time.Now(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO payments (id, user_id, type, amount, status, request_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.UserID, payment.Type, payment.Amount, payment.Status, payment.RequestDate)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to record deposit")
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return payment, nil
}
