package security

import (
	"golang.org/x/crypto/bcrypt"

	"mainford/internal/core/ports"
)

// bcryptCost matches the cost factor the platform has always used.
const bcryptCost = 10

type passwordService struct{}

var _ ports.PasswordPort = passwordService{}

// NewPasswordService returns the bcrypt-backed password hasher.
func NewPasswordService() ports.PasswordPort {
	return passwordService{}
}

func (passwordService) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (passwordService) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
