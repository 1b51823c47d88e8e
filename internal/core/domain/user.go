package domain

import (
	"time"

	"github.com/google/uuid"
)

// BankAccount is the payout sub-record of a user. Every field is
// encrypted at rest; the domain layer always sees plaintext.
type BankAccount struct {
	AccountNumber string `json:"accountNumber"`
	RoutingCode   string `json:"routingCode"`
	HolderName    string `json:"holderName"`
}

// User represents a member of the platform.
type User struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	EmailVerified bool        `json:"emailVerified"`
	PhoneVerified bool        `json:"phoneVerified"`
	DOB           time.Time   `json:"dob"`
	BankAccount   BankAccount `json:"accountDetails"`
	PhotoURL      string      `json:"photoUrl"`
	AdminApproved bool        `json:"adminApproved"`
	ReferralCode  string      `json:"referralCode"`
	ReferredBy    *uuid.UUID  `json:"referredBy,omitempty"`
	ProofURL      string      `json:"paymentProofUrl"`
	Balance       float64     `json:"balance"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`

	PasswordHash           string `json:"-"`
	EmailVerificationToken string `json:"-"`
}

// Sanitized returns a copy safe to hand to an unauthorized viewer:
// the decrypted bank details are blanked out.
func (u User) Sanitized() User {
	u.BankAccount = BankAccount{}
	return u
}

// UserPatch is a partial update applied through the whitelist discipline:
// only fields a caller is allowed to touch are representable here. Nil
// means "leave unchanged".
type UserPatch struct {
	Name          *string
	Phone         *string
	DOB           *time.Time
	BankAccount   *BankAccount
	PhotoURL      *string
	Email         *string // admin only
	EmailVerified *bool   // admin only
	PhoneVerified *bool   // admin only
}
