package postgres

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

type userRepository struct {
	db     *DB
	secSvc ports.SecurityPort
	log    zerolog.Logger
}

var _ ports.UserRepository = (*userRepository)(nil) // Ensure compliance

// NewUserRepository creates a new repository for user operations.
func NewUserRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.UserRepository {
	return &userRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "user_repo").Logger(),
	}
}

const userQueryCols = `
	id, name, email, phone, email_verified, phone_verified, email_verification_token,
	dob, account_number, routing_code, holder_name, photo_url, admin_approved,
	referral_code, referred_by, proof_url, balance, password_hash, created_at, updated_at
`

// encryptField encrypts and base64-encodes one bank-account field.
// Empty values are stored empty, matching the schema defaults.
func (r *userRepository) encryptField(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	encBytes, err := r.secSvc.Encrypt([]byte(plain))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encBytes), nil
}

func (r *userRepository) decryptField(enc string) (string, error) {
	if enc == "" {
		return "", nil
	}
	decBytes, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", err
	}
	dec, err := r.secSvc.Decrypt(decBytes)
	if err != nil {
		return "", err
	}
	return string(dec), nil
}

func (r *userRepository) encryptBank(acct domain.BankAccount) (number, routing, holder string, err error) {
	if number, err = r.encryptField(acct.AccountNumber); err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt account number")
		return
	}
	if routing, err = r.encryptField(acct.RoutingCode); err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt routing code")
		return
	}
	if holder, err = r.encryptField(acct.HolderName); err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt holder name")
		return
	}
	return
}

// Create encrypts the bank sub-record and saves a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	encNumber, encRouting, encHolder, err := r.encryptBank(user.BankAccount)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (
			id, name, email, phone, email_verified, phone_verified, email_verification_token,
			dob, account_number, routing_code, holder_name, photo_url, admin_approved,
			referral_code, referred_by, proof_url, balance, password_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = r.db.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.EmailVerified,
		user.PhoneVerified,
		nullableString(user.EmailVerificationToken),
		user.DOB,
		encNumber,
		encRouting,
		encHolder,
		user.PhotoURL,
		user.AdminApproved,
		user.ReferralCode,
		user.ReferredBy,
		user.ProofURL,
		user.Balance,
		user.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
		}
		r.log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert new user")
		return err
	}
	return nil
}

// scanUser scans a row into a User struct. It decrypts the bank
// sub-record internally.
func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var encNumber, encRouting, encHolder string
	var verifToken *string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.EmailVerified,
		&user.PhoneVerified,
		&verifToken,
		&user.DOB,
		&encNumber,
		&encRouting,
		&encHolder,
		&user.PhotoURL,
		&user.AdminApproved,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.ProofURL,
		&user.Balance,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Msg("Failed to scan user row")
		return nil, err
	}

	if verifToken != nil {
		user.EmailVerificationToken = *verifToken
	}

	if user.BankAccount.AccountNumber, err = r.decryptField(encNumber); err != nil {
		r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to decrypt account number (tampered?)")
		return nil, err
	}
	if user.BankAccount.RoutingCode, err = r.decryptField(encRouting); err != nil {
		r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to decrypt routing code (tampered?)")
		return nil, err
	}
	if user.BankAccount.HolderName, err = r.decryptField(encHolder); err != nil {
		r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to decrypt holder name (tampered?)")
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userQueryCols + ` FROM users WHERE ` + where
	row := r.db.pool.QueryRow(ctx, query, arg)
	return r.scanUser(row)
}

// GetByID finds and decrypts a user by their internal UUID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail finds and decrypts a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

// GetByReferralCode finds the user owning a referral code.
func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.getOne(ctx, "referral_code = $1", code)
}

// GetByVerificationToken finds a user by their email verification token.
func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, "email_verification_token = $1", token)
}

// Update persists all mutable user fields, re-encrypting the bank
// sub-record.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	encNumber, encRouting, encHolder, err := r.encryptBank(user.BankAccount)
	if err != nil {
		return err
	}

	query := `
		UPDATE users SET
			name = $2, email = $3, phone = $4, email_verified = $5, phone_verified = $6,
			email_verification_token = $7, dob = $8, account_number = $9, routing_code = $10,
			holder_name = $11, photo_url = $12, admin_approved = $13, balance = $14,
			password_hash = $15, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.EmailVerified,
		user.PhoneVerified,
		nullableString(user.EmailVerificationToken),
		user.DOB,
		encNumber,
		encRouting,
		encHolder,
		user.PhotoURL,
		user.AdminApproved,
		user.Balance,
		user.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
		}
		r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to update user")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a user. Referral back-references from their
// descendants are nulled out by the schema.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to delete user")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns a page of users plus the total match count. Filter keys
// and the sort field must be column names already validated against the
// allow-list; values are always passed as bind parameters.
func (r *userRepository) List(ctx context.Context, params ports.ListParams) ([]*domain.User, int, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + userQueryCols + `, COUNT(*) OVER() AS total FROM users`)

	args := make([]any, 0, len(params.Filter)+2)
	conds := make([]string, 0, len(params.Filter))
	for col, val := range params.Filter {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	sortField := params.SortField
	if sortField == "" {
		sortField = "created_at"
	}
	order := "ASC"
	if params.SortDesc {
		order = "DESC"
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", sortField, order))

	args = append(args, params.Limit)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, params.Offset)
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.db.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query user list")
		return nil, 0, err
	}
	defer rows.Close()

	var users []*domain.User
	var total int
	for rows.Next() {
		user, n, err := r.scanUserWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = n
		users = append(users, user)
	}
	if rows.Err() != nil {
		r.log.Error().Err(rows.Err()).Msg("Error iterating user rows")
		return nil, 0, rows.Err()
	}

	if users == nil && total == 0 {
		// Empty page. The window count is unavailable, so count directly.
		countQuery := "SELECT COUNT(*) FROM users"
		countArgs := args[:len(args)-2]
		if len(conds) > 0 {
			countQuery += " WHERE " + strings.Join(conds, " AND ")
		}
		if err := r.db.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	return users, total, nil
}

// scanUserWithTotal is scanUser plus the trailing window-count column.
func (r *userRepository) scanUserWithTotal(row pgx.Row) (*domain.User, int, error) {
	var user domain.User
	var encNumber, encRouting, encHolder string
	var verifToken *string
	var total int

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone,
		&user.EmailVerified, &user.PhoneVerified, &verifToken, &user.DOB,
		&encNumber, &encRouting, &encHolder, &user.PhotoURL,
		&user.AdminApproved, &user.ReferralCode, &user.ReferredBy, &user.ProofURL,
		&user.Balance, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
		&total,
	)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to scan user list row")
		return nil, 0, err
	}
	if verifToken != nil {
		user.EmailVerificationToken = *verifToken
	}
	if user.BankAccount.AccountNumber, err = r.decryptField(encNumber); err != nil {
		return nil, 0, err
	}
	if user.BankAccount.RoutingCode, err = r.decryptField(encRouting); err != nil {
		return nil, 0, err
	}
	if user.BankAccount.HolderName, err = r.decryptField(encHolder); err != nil {
		return nil, 0, err
	}
	return &user, total, nil
}

// CountReferrals counts the direct children of a user.
func (r *userRepository) CountReferrals(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE referred_by = $1", id).Scan(&count)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to count referrals")
		return 0, err
	}
	return count, nil
}

// Descendants walks the referral forest below root with a bounded
// recursive query. Each row carries its own parent pointer and depth.
func (r *userRepository) Descendants(ctx context.Context, root uuid.UUID, maxDepth int) ([]domain.ReferralRecord, error) {
	query := `
		WITH RECURSIVE descendants AS (
			SELECT id, name, email, referral_code, referred_by, created_at, 1 AS depth
			FROM users WHERE referred_by = $1
			UNION ALL
			SELECT u.id, u.name, u.email, u.referral_code, u.referred_by, u.created_at, d.depth + 1
			FROM users u
			JOIN descendants d ON u.referred_by = d.id
			WHERE d.depth < $2
		)
		SELECT id, name, email, referral_code, referred_by, created_at, depth
		FROM descendants
		ORDER BY depth, created_at
	`
	rows, err := r.db.pool.Query(ctx, query, root, maxDepth)
	if err != nil {
		r.log.Error().Err(err).Str("root", root.String()).Msg("Failed to query referral descendants")
		return nil, err
	}
	defer rows.Close()

	var records []domain.ReferralRecord
	for rows.Next() {
		var rec domain.ReferralRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.ReferralCode, &rec.ReferredBy, &rec.CreatedAt, &rec.Depth); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan referral row")
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
