package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxReferralDepth bounds referral-tree traversal. Chains longer than
// this are truncated, not an error.
const MaxReferralDepth = 5

// ReferralRecord is one row of the flat descendant list: the subset of
// user fields the tree needs plus the recorded depth below the root.
type ReferralRecord struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	ReferralCode string     `json:"referralCode"`
	ReferredBy   *uuid.UUID `json:"referredBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	Depth        int        `json:"depth"`
}

// ReferralNode is a node of the derived referral tree.
type ReferralNode struct {
	ReferralRecord
	Children []*ReferralNode `json:"children"`
}
