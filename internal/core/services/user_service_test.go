package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

func newTestUserService(users *MockUserRepository, payments *MockPaymentRepository,
	passwords *MockPasswordPort, media *MockMediaStorage, bus *MockEventBus) *UserService {
	nopLogger := zerolog.Nop()
	return NewUserService(users, payments, passwords, media, bus, UserPolicy{
		InitialBalance:       250,
		RequireAdminApproval: true,
		RequireEmailVerified: false,
	}, &nopLogger)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Phone:     "+15550000001",
		DOB:       time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Password:  "correct-horse",
		ProofName: "screenshot.png",
		ProofData: []byte{0x89, 0x50, 0x4e, 0x47},
	}
}

func TestUserService_Register_SeedsBalanceAndDeposit(t *testing.T) {
	users := new(MockUserRepository)
	payments := new(MockPaymentRepository)
	passwords := new(MockPasswordPort)
	media := new(MockMediaStorage)
	bus := new(MockEventBus)
	svc := newTestUserService(users, payments, passwords, media, bus)
	ctx := context.Background()

	media.On("Upload", ctx, "screenshot.png", mock.Anything).Return("https://img.example/proof.png", nil)
	passwords.On("Hash", "correct-horse").Return("$2a$10$hash", nil)
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	payments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil)
	bus.On("Publish", ctx, ports.TopicUserRegistered, mock.Anything).Return(nil)

	user, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Balance != 250 {
		t.Errorf("Balance = %v, want 250", user.Balance)
	}
	if user.ReferralCode == "" {
		t.Error("User has no referral code")
	}
	if user.AdminApproved {
		t.Error("New user must not be pre-approved")
	}
	if user.ProofURL != "https://img.example/proof.png" {
		t.Errorf("ProofURL = %q", user.ProofURL)
	}

	// Exactly one completed deposit of the initial balance.
	payments.AssertNumberOfCalls(t, "Create", 1)
	deposit := payments.Calls[0].Arguments.Get(1).(*domain.Payment)
	if deposit.Type != domain.PaymentDeposit || deposit.Status != domain.PaymentCompleted {
		t.Errorf("Seed payment is %s/%s, want deposit/completed", deposit.Type, deposit.Status)
	}
	if deposit.Amount != 250 {
		t.Errorf("Seed amount = %v, want 250", deposit.Amount)
	}
	if deposit.UserID != user.ID {
		t.Error("Seed deposit does not reference the new user")
	}
}

func TestUserService_Register_UnknownReferralCode(t *testing.T) {
	users := new(MockUserRepository)
	payments := new(MockPaymentRepository)
	passwords := new(MockPasswordPort)
	media := new(MockMediaStorage)
	bus := new(MockEventBus)
	svc := newTestUserService(users, payments, passwords, media, bus)
	ctx := context.Background()

	users.On("GetByReferralCode", ctx, "NO5UCH99").Return(nil, domain.ErrNotFound)

	in := validRegisterInput()
	in.ReferralCode = "NO5UCH99"
	_, err := svc.Register(ctx, in)
	if !errors.Is(err, domain.ErrUnknownReferral) {
		t.Fatalf("err = %v, want ErrUnknownReferral", err)
	}
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Register_LinksReferrer(t *testing.T) {
	users := new(MockUserRepository)
	payments := new(MockPaymentRepository)
	passwords := new(MockPasswordPort)
	media := new(MockMediaStorage)
	bus := new(MockEventBus)
	svc := newTestUserService(users, payments, passwords, media, bus)
	ctx := context.Background()

	referrer := &domain.User{ID: uuid.New(), ReferralCode: "FRIEND42"}
	users.On("GetByReferralCode", ctx, "FRIEND42").Return(referrer, nil)
	media.On("Upload", ctx, mock.Anything, mock.Anything).Return("https://img.example/p.png", nil)
	passwords.On("Hash", mock.Anything).Return("$2a$10$hash", nil)
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	payments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil)
	bus.On("Publish", ctx, ports.TopicUserRegistered, mock.Anything).Return(nil)

	in := validRegisterInput()
	in.ReferralCode = "FRIEND42"
	user, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ReferredBy == nil || *user.ReferredBy != referrer.ID {
		t.Fatalf("ReferredBy = %v, want %s", user.ReferredBy, referrer.ID)
	}
}

func TestUserService_Register_RetriesReferralCodeCollision(t *testing.T) {
	users := new(MockUserRepository)
	payments := new(MockPaymentRepository)
	passwords := new(MockPasswordPort)
	media := new(MockMediaStorage)
	bus := new(MockEventBus)
	svc := newTestUserService(users, payments, passwords, media, bus)
	ctx := context.Background()

	media.On("Upload", ctx, mock.Anything, mock.Anything).Return("https://img.example/p.png", nil)
	passwords.On("Hash", mock.Anything).Return("$2a$10$hash", nil)

	collision := fmt.Errorf("%w: users_referral_code_key", domain.ErrDuplicate)
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(collision).Once()
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()
	payments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil)
	bus.On("Publish", ctx, ports.TopicUserRegistered, mock.Anything).Return(nil)

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("Register failed after collision retry: %v", err)
	}
	users.AssertNumberOfCalls(t, "Create", 2)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	payments := new(MockPaymentRepository)
	passwords := new(MockPasswordPort)
	media := new(MockMediaStorage)
	bus := new(MockEventBus)
	svc := newTestUserService(users, payments, passwords, media, bus)
	ctx := context.Background()

	media.On("Upload", ctx, mock.Anything, mock.Anything).Return("https://img.example/p.png", nil)
	passwords.On("Hash", mock.Anything).Return("$2a$10$hash", nil)
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(fmt.Errorf("%w: users_email_key", domain.ErrDuplicate))

	_, err := svc.Register(ctx, validRegisterInput())
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	// An email conflict must not be retried like a code collision.
	users.AssertNumberOfCalls(t, "Create", 1)
}

func TestUserService_Register_RejectsMissingFields(t *testing.T) {
	svc := newTestUserService(new(MockUserRepository), new(MockPaymentRepository),
		new(MockPasswordPort), new(MockMediaStorage), new(MockEventBus))
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"no name", func(in *RegisterInput) { in.Name = " " }},
		{"no email", func(in *RegisterInput) { in.Email = "" }},
		{"no phone", func(in *RegisterInput) { in.Phone = "" }},
		{"no dob", func(in *RegisterInput) { in.DOB = time.Time{} }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
		{"no screenshot", func(in *RegisterInput) { in.ProofData = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validRegisterInput()
			tc.mutate(&in)
			if _, err := svc.Register(ctx, in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUserService_Login(t *testing.T) {
	approved := func() *domain.User {
		return &domain.User{
			ID:            uuid.New(),
			Email:         "jane@example.com",
			PasswordHash:  "$2a$10$hash",
			AdminApproved: true,
			EmailVerified: true,
		}
	}

	t.Run("success", func(t *testing.T) {
		users := new(MockUserRepository)
		passwords := new(MockPasswordPort)
		svc := newTestUserService(users, new(MockPaymentRepository), passwords, new(MockMediaStorage), new(MockEventBus))
		user := approved()
		users.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		passwords.On("Verify", "correct-horse", user.PasswordHash).Return(true)

		got, err := svc.Login(context.Background(), "jane@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if got.ID != user.ID {
			t.Error("Login returned the wrong user")
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := newTestUserService(users, new(MockPaymentRepository), new(MockPasswordPort), new(MockMediaStorage), new(MockEventBus))
		users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

		if _, err := svc.Login(context.Background(), "ghost@example.com", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("bad password", func(t *testing.T) {
		users := new(MockUserRepository)
		passwords := new(MockPasswordPort)
		svc := newTestUserService(users, new(MockPaymentRepository), passwords, new(MockMediaStorage), new(MockEventBus))
		user := approved()
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		passwords.On("Verify", "wrong", user.PasswordHash).Return(false)

		if _, err := svc.Login(context.Background(), user.Email, "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("not approved", func(t *testing.T) {
		users := new(MockUserRepository)
		passwords := new(MockPasswordPort)
		svc := newTestUserService(users, new(MockPaymentRepository), passwords, new(MockMediaStorage), new(MockEventBus))
		user := approved()
		user.AdminApproved = false
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		passwords.On("Verify", "correct-horse", user.PasswordHash).Return(true)

		if _, err := svc.Login(context.Background(), user.Email, "correct-horse"); !errors.Is(err, domain.ErrNotApproved) {
			t.Fatalf("err = %v, want ErrNotApproved", err)
		}
	})
}

func TestUserService_UpdateProfile_WhitelistOnly(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestUserService(users, new(MockPaymentRepository), new(MockPasswordPort), new(MockMediaStorage), new(MockEventBus))
	ctx := context.Background()

	existing := &domain.User{
		ID:            uuid.New(),
		Name:          "Old Name",
		Email:         "old@example.com",
		Balance:       250,
		AdminApproved: false,
		PasswordHash:  "$2a$10$original",
	}
	users.On("GetByID", ctx, existing.ID).Return(existing, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	newName := "New Name"
	newEmail := "new@example.com"
	updated, err := svc.UpdateProfile(ctx, existing.ID, domain.UserPatch{
		Name:  &newName,
		Email: &newEmail, // admin-only, must be ignored for a self-service call
	}, false)
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	if updated.Name != "New Name" {
		t.Errorf("Name = %q, want %q", updated.Name, "New Name")
	}
	if updated.Email != "old@example.com" {
		t.Error("Self-service update changed the email")
	}
	if updated.PasswordHash != "$2a$10$original" || updated.AdminApproved || updated.Balance != 250 {
		t.Error("Forbidden fields were mutated")
	}
}

func TestUserService_Approve_PublishesEvent(t *testing.T) {
	users := new(MockUserRepository)
	bus := new(MockEventBus)
	svc := newTestUserService(users, new(MockPaymentRepository), new(MockPasswordPort), new(MockMediaStorage), bus)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New()}
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	bus.On("Publish", ctx, ports.TopicUserApproved, mock.Anything).Return(nil)

	approvedUser, err := svc.Approve(ctx, user.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if !approvedUser.AdminApproved {
		t.Error("User is not approved after Approve")
	}
	bus.AssertCalled(t, "Publish", ctx, ports.TopicUserApproved, mock.Anything)
}

func TestUserService_ReferralTree(t *testing.T) {
	users := new(MockUserRepository)
	svc := newTestUserService(users, new(MockPaymentRepository), new(MockPasswordPort), new(MockMediaStorage), new(MockEventBus))
	ctx := context.Background()

	root := &domain.User{ID: uuid.New(), Name: "Root"}
	childID := uuid.New()
	users.On("GetByID", ctx, root.ID).Return(root, nil)
	users.On("Descendants", ctx, root.ID, domain.MaxReferralDepth).Return([]domain.ReferralRecord{
		{ID: childID, Name: "Child", ReferredBy: &root.ID, Depth: 1},
	}, nil)
	users.On("CountReferrals", ctx, root.ID).Return(1, nil)

	tree, count, err := svc.ReferralTree(ctx, root.ID)
	if err != nil {
		t.Fatalf("ReferralTree failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != childID {
		t.Fatalf("Tree does not list the direct referral: %+v", tree)
	}
}
