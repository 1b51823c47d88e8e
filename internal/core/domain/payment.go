package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentType distinguishes money moving out of or into a balance.
type PaymentType string

const (
	PaymentWithdrawal PaymentType = "withdrawal"
	PaymentDeposit    PaymentType = "deposit"
)

// PaymentStatus is the payment state machine ENUM.
// Legal transitions: requested -> completed, requested -> rejected.
// Completed and rejected are terminal.
type PaymentStatus string

const (
	PaymentRequested PaymentStatus = "requested"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRejected  PaymentStatus = "rejected"
)

// ValidPaymentType reports whether t is a known payment type.
func ValidPaymentType(t PaymentType) bool {
	return t == PaymentWithdrawal || t == PaymentDeposit
}

// Payment is a single ledger entry owned by a user.
type Payment struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"userId"`
	Type            PaymentType   `json:"type"`
	Amount          float64       `json:"amount"`
	Status          PaymentStatus `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	RequestDate     time.Time     `json:"requestDate"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Terminal reports whether the payment can no longer change status.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentRejected
}

// PaymentStatistics is the read-side aggregate over a user's full
// payment history, recomputed on every call.
type PaymentStatistics struct {
	TotalAmountToday float64 `json:"totalAmountToday"`
	TotalAmountWeek  float64 `json:"totalAmountWeek"`
	TotalAmountMonth float64 `json:"totalAmountMonth"`
	TotalAmountYear  float64 `json:"totalAmountYear"`

	TotalPayments    int     `json:"totalPayments"`
	TotalWithdrawals float64 `json:"totalWithdrawals"`
	TotalDeposits    float64 `json:"totalDeposits"`

	NumberOfWithdrawals         int     `json:"numberOfWithdrawals"`
	NumberOfDeposits            int     `json:"numberOfDeposits"`
	PendingWithdrawals          float64 `json:"pendingWithdrawals"`
	RejectedWithdrawals         float64 `json:"rejectedWithdrawals"`
	NumberOfRejectedWithdrawals int     `json:"numberOfRejectedWithdrawals"`

	AverageWithdrawalAmount     float64 `json:"averageWithdrawalAmount"`
	AverageDepositAmount        float64 `json:"averageDepositAmount"`
	SuccessfulTransactionsCount int     `json:"successfulTransactionsCount"`

	Payments []*Payment `json:"payments"`
}
