package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mainford/internal/auth"
	"mainford/internal/core/domain"
	"mainford/internal/core/services"
	"mainford/internal/http/middleware"
	"mainford/internal/http/respond"
)

// PaymentHandler serves the ledger endpoints.
type PaymentHandler struct {
	payments *services.PaymentService
	log      zerolog.Logger
}

func NewPaymentHandler(payments *services.PaymentService, baseLogger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		log:      baseLogger.With().Str("component", "payment_handler").Logger(),
	}
}

// RequestWithdrawal handles POST /payments/withdrawal.
func (h *PaymentHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	payment, err := h.payments.RequestWithdrawal(r.Context(), claims.UserID, body.Amount)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, payment)
}

// AddBalance handles POST /payments/add-balance (admin).
func (h *PaymentHandler) AddBalance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID uuid.UUID `json:"userId"`
		Amount float64   `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == uuid.Nil {
		respond.Error(w, http.StatusBadRequest, "userId and amount are required")
		return
	}

	payment, err := h.payments.AddBalance(r.Context(), body.UserID, body.Amount)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, payment)
}

// UpdateStatus handles PUT /payments/update-status/{id} (admin).
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed payment id")
		return
	}

	var body struct {
		Status          domain.PaymentStatus `json:"status"`
		RejectionReason string               `json:"rejectionReason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	payment, err := h.payments.SetStatus(r.Context(), id, body.Status, body.RejectionReason)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}

// Requested handles GET /payments/requested (admin).
func (h *PaymentHandler) Requested(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.Requested(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payments)
}

// UserStatistics handles GET /payments/user-payments.
func (h *PaymentHandler) UserStatistics(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.payments.UserStatistics(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

// GetByID handles GET /payments/{id}. Members only see their own
// records; an admin session sees everything.
func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed payment id")
		return
	}

	payment, err := h.payments.GetByID(r.Context(), id, claims.UserID, claims.Role == auth.RoleAdmin)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}
