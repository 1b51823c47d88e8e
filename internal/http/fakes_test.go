package http

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

// In-memory stand-ins for the persistence ports, so routing, auth and
// serialization can be exercised end to end without a database.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

var _ ports.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	clone := *user
	clone.CreatedAt = time.Now()
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *memUserRepo) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ReferralCode == code })
}

func (r *memUserRepo) GetByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.EmailVerificationToken == token })
}

func (r *memUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context, params ports.ListParams) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var page []*domain.User
	for _, user := range r.users {
		clone := *user
		page = append(page, &clone)
	}
	return page, len(page), nil
}

func (r *memUserRepo) CountReferrals(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, user := range r.users {
		if user.ReferredBy != nil && *user.ReferredBy == id {
			count++
		}
	}
	return count, nil
}

func (r *memUserRepo) Descendants(_ context.Context, root uuid.UUID, maxDepth int) ([]domain.ReferralRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []domain.ReferralRecord
	frontier := []uuid.UUID{root}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, parent := range frontier {
			for _, user := range r.users {
				if user.ReferredBy != nil && *user.ReferredBy == parent {
					records = append(records, domain.ReferralRecord{
						ID:           user.ID,
						Name:         user.Name,
						Email:        user.Email,
						ReferralCode: user.ReferralCode,
						ReferredBy:   user.ReferredBy,
						CreatedAt:    user.CreatedAt,
						Depth:        depth,
					})
					next = append(next, user.ID)
				}
			}
		}
		frontier = next
	}
	return records, nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	users    *memUserRepo
	payments map[uuid.UUID]*domain.Payment
}

var _ ports.PaymentRepository = (*memPaymentRepo)(nil)

func newMemPaymentRepo(users *memUserRepo) *memPaymentRepo {
	return &memPaymentRepo{users: users, payments: make(map[uuid.UUID]*domain.Payment)}
}

func (r *memPaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *payment
	clone.CreatedAt = time.Now()
	r.payments[payment.ID] = &clone
	return nil
}

func (r *memPaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *payment
	return &clone, nil
}

func (r *memPaymentRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, payment := range r.payments {
		if payment.UserID == userID {
			clone := *payment
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) ListByStatus(_ context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, payment := range r.payments {
		if payment.Status == status {
			clone := *payment
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) ListAll(_ context.Context) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, payment := range r.payments {
		clone := *payment
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memPaymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *memPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memPaymentRepo) ApplyStatus(ctx context.Context, payment *domain.Payment, balanceDelta float64) error {
	user, err := r.users.GetByID(ctx, payment.UserID)
	if err != nil {
		return err
	}
	if user.Balance+balanceDelta < 0 {
		return domain.ErrInsufficientBalance
	}
	user.Balance += balanceDelta
	if err := r.users.Update(ctx, user); err != nil {
		return err
	}
	return r.Update(ctx, payment)
}

func (r *memPaymentRepo) CreditBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.Payment, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Balance += amount
	if err := r.users.Update(ctx, user); err != nil {
		return nil, err
	}
	payment := &domain.Payment{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.PaymentDeposit,
		Amount:      amount,
		Status:      domain.PaymentCompleted,
		RequestDate: time.Now(),
	}
	if err := r.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

type fakePasswords struct{}

var _ ports.PasswordPort = fakePasswords{}

func (fakePasswords) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakePasswords) Verify(plain, hash string) bool { return hash == "hashed:"+plain }

type fakeMedia struct{}

var _ ports.MediaStorage = fakeMedia{}

func (fakeMedia) Upload(_ context.Context, filename string, _ []byte) (string, error) {
	return "https://media.test/" + filename, nil
}

type noopBus struct{}

var _ ports.EventBus = noopBus{}

func (noopBus) Publish(context.Context, string, interface{}) error { return nil }

func (noopBus) Subscribe(string, ports.EventHandler) {}
