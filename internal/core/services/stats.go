package services

import (
	"time"

	"mainford/internal/core/domain"
)

// ComputeStatistics aggregates a user's full payment history into the
// read-side statistics view. Pure function so it can be recomputed on
// every call.
func ComputeStatistics(payments []*domain.Payment, now time.Time) domain.PaymentStatistics {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Weeks start on Sunday.
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	stats := domain.PaymentStatistics{
		TotalPayments: len(payments),
		Payments:      payments,
	}

	for _, p := range payments {
		if p.CreatedAt.After(dayStart) {
			stats.TotalAmountToday += p.Amount
		}
		if p.CreatedAt.After(weekStart) {
			stats.TotalAmountWeek += p.Amount
		}
		if p.CreatedAt.After(monthStart) {
			stats.TotalAmountMonth += p.Amount
		}
		if p.CreatedAt.After(yearStart) {
			stats.TotalAmountYear += p.Amount
		}

		switch p.Type {
		case domain.PaymentWithdrawal:
			stats.NumberOfWithdrawals++
			switch p.Status {
			case domain.PaymentCompleted:
				stats.TotalWithdrawals += p.Amount
			case domain.PaymentRequested:
				stats.PendingWithdrawals += p.Amount
			case domain.PaymentRejected:
				stats.RejectedWithdrawals += p.Amount
				stats.NumberOfRejectedWithdrawals++
			}
		case domain.PaymentDeposit:
			stats.NumberOfDeposits++
			if p.Status == domain.PaymentCompleted {
				stats.TotalDeposits += p.Amount
			}
		}

		if p.Status == domain.PaymentCompleted {
			stats.SuccessfulTransactionsCount++
		}
	}

	if stats.NumberOfWithdrawals > 0 {
		stats.AverageWithdrawalAmount = stats.TotalWithdrawals / float64(stats.NumberOfWithdrawals)
	}
	if stats.NumberOfDeposits > 0 {
		stats.AverageDepositAmount = stats.TotalDeposits / float64(stats.NumberOfDeposits)
	}

	return stats
}
