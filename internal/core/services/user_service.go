package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

// referralCodeAttempts bounds the regenerate-on-collision loop.
const referralCodeAttempts = 5

// UserPolicy holds the login/registration policy knobs.
type UserPolicy struct {
	InitialBalance       float64
	RequireAdminApproval bool
	RequireEmailVerified bool
}

// UserService implements the user directory: registration, login,
// profile and referral queries, and the admin-side record management.
type UserService struct {
	users     ports.UserRepository
	payments  ports.PaymentRepository
	passwords ports.PasswordPort
	media     ports.MediaStorage
	bus       ports.EventBus
	policy    UserPolicy
	log       zerolog.Logger
}

// NewUserService wires the user directory.
func NewUserService(
	users ports.UserRepository,
	payments ports.PaymentRepository,
	passwords ports.PasswordPort,
	media ports.MediaStorage,
	bus ports.EventBus,
	policy UserPolicy,
	baseLogger *zerolog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		payments:  payments,
		passwords: passwords,
		media:     media,
		bus:       bus,
		policy:    policy,
		log:       baseLogger.With().Str("component", "user_service").Logger(),
	}
}

// RegisterInput carries everything a new registration needs.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	DOB          time.Time
	Password     string
	ReferralCode string // optional, the referrer's code
	ProofName    string
	ProofData    []byte
}

func (in *RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Email) == "" ||
		strings.TrimSpace(in.Phone) == "" {
		return fmt.Errorf("%w: name, email and phone are required", domain.ErrValidation)
	}
	if in.DOB.IsZero() {
		return fmt.Errorf("%w: date of birth is required", domain.ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if len(in.ProofData) == 0 {
		return fmt.Errorf("%w: payment screenshot is required", domain.ErrValidation)
	}
	return nil
}

// Register creates a new user: resolves the optional referrer, uploads
// the payment proof, seeds the balance and the matching completed
// deposit, and announces the registration on the bus.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var referredBy *uuid.UUID
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		referrer, err := s.users.GetByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrUnknownReferral
			}
			return nil, err
		}
		referredBy = &referrer.ID
	}

	proofURL, err := s.media.Upload(ctx, in.ProofName, in.ProofData)
	if err != nil {
		s.log.Error().Err(err).Str("email", in.Email).Msg("Failed to upload payment proof")
		return nil, err
	}

	passwordHash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	verifToken, err := generateToken(emailTokenLength)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:                     uuid.New(),
		Name:                   strings.TrimSpace(in.Name),
		Email:                  strings.TrimSpace(in.Email),
		Phone:                  strings.TrimSpace(in.Phone),
		DOB:                    in.DOB,
		PhotoURL:               placeholderAvatarURL(in.Name),
		ReferredBy:             referredBy,
		ProofURL:               proofURL,
		Balance:                s.policy.InitialBalance,
		PasswordHash:           passwordHash,
		EmailVerificationToken: verifToken,
	}

	// Referral codes are unique; regenerate on a collision.
	for attempt := 0; ; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		user.ReferralCode = code

		err = s.users.Create(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicate) && strings.Contains(err.Error(), "referral_code") && attempt < referralCodeAttempts {
			s.log.Warn().Int("attempt", attempt+1).Msg("Referral code collision, regenerating")
			continue
		}
		return nil, err
	}

	// Seed the ledger with the registration deposit.
	if s.policy.InitialBalance > 0 {
		deposit := &domain.Payment{
			ID:          uuid.New(),
			UserID:      user.ID,
			Type:        domain.PaymentDeposit,
			Amount:      s.policy.InitialBalance,
			Status:      domain.PaymentCompleted,
			RequestDate: time.Now(),
		}
		if err := s.payments.Create(ctx, deposit); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to seed registration deposit")
			return nil, err
		}
	}

	if err := s.bus.Publish(ctx, ports.TopicUserRegistered, user); err != nil {
		s.log.Error().Err(err).Msg("Failed to publish registration event")
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("User registered")
	return user, nil
}

// Login authenticates a user and enforces the configured access policy.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.passwords.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if s.policy.RequireEmailVerified && !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	if s.policy.RequireAdminApproval && !user.AdminApproved {
		return nil, domain.ErrNotApproved
	}
	return user, nil
}

// Profile loads a user by id.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies a whitelisted partial update. The UserPatch type
// is the whitelist: anything not representable there cannot be changed.
// The admin-only fields are honored only when admin is true.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.UserPatch, admin bool) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		user.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.DOB != nil {
		user.DOB = *patch.DOB
	}
	if patch.BankAccount != nil {
		user.BankAccount = *patch.BankAccount
	}
	if patch.PhotoURL != nil {
		user.PhotoURL = *patch.PhotoURL
	}

	if admin {
		if patch.Email != nil {
			user.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.EmailVerified != nil {
			user.EmailVerified = *patch.EmailVerified
		}
		if patch.PhoneVerified != nil {
			user.PhoneVerified = *patch.PhoneVerified
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail flips the verified flag for the token's owner and
// invalidates the token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", domain.ErrValidation)
	}
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	user.EmailVerified = true
	user.EmailVerificationToken = ""
	return s.users.Update(ctx, user)
}

// Approve marks a user admin-approved and announces it on the bus.
func (s *UserService) Approve(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.AdminApproved = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.bus.Publish(ctx, ports.TopicUserApproved, user); err != nil {
		s.log.Error().Err(err).Msg("Failed to publish approval event")
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("User approved")
	return user, nil
}

// Delete removes a user record.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

// GetByID loads a user by id (admin view).
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns one page of users plus the total count. Params must
// already be validated against the field allow-list.
func (s *UserService) List(ctx context.Context, params ports.ListParams) ([]*domain.User, int, error) {
	return s.users.List(ctx, params)
}

// ReferralTree builds the derived referral tree below a user, together
// with the direct referral count.
func (s *UserService) ReferralTree(ctx context.Context, rootID uuid.UUID) (*domain.ReferralNode, int, error) {
	user, err := s.users.GetByID(ctx, rootID)
	if err != nil {
		return nil, 0, err
	}

	descendants, err := s.users.Descendants(ctx, rootID, domain.MaxReferralDepth)
	if err != nil {
		return nil, 0, err
	}

	root := domain.ReferralRecord{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		ReferralCode: user.ReferralCode,
		ReferredBy:   user.ReferredBy,
		CreatedAt:    user.CreatedAt,
		Depth:        0,
	}
	tree := BuildReferralTree(root, descendants, s.log)

	count, err := s.users.CountReferrals(ctx, rootID)
	if err != nil {
		return nil, 0, err
	}
	return tree, count, nil
}

// placeholderAvatarURL derives the default avatar from the user's
// initials, matching the long-standing platform default.
func placeholderAvatarURL(name string) string {
	var initials strings.Builder
	for _, word := range strings.Fields(name) {
		initials.WriteString(strings.ToUpper(word[:1]))
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random&size=128",
		url.QueryEscape(initials.String()))
}
