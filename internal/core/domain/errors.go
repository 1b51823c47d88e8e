package domain

import "errors"

// Sentinel errors for the failure taxonomy. Adapters translate store
// errors into these; the HTTP layer maps them to status codes.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("record already exists")
	ErrValidation          = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotApproved         = errors.New("admin approval required")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid payment status transition")
	ErrUnknownReferral     = errors.New("referral code does not exist")
)
