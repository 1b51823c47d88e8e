package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// referralCodeLength is the length of generated referral codes.
	referralCodeLength = 8
	// emailTokenLength is the length of email verification tokens.
	emailTokenLength = 32
)

// Alphabet without easily confused characters.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateToken returns a random string of n alphabet characters.
func generateToken(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not generate token: %w", err)
		}
		sb.WriteByte(tokenAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// generateReferralCode returns a fresh random referral code. Uniqueness
// is enforced by the database; callers retry on a duplicate.
func generateReferralCode() (string, error) {
	return generateToken(referralCodeLength)
}
