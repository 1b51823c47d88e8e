package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mainford/internal/auth"
	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
	"mainford/internal/core/services"
	"mainford/internal/http/respond"
)

// AdminCredentials holds the single back-office account, loaded from
// the environment. The password is stored as a bcrypt hash.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// AdminHandler serves the back-office endpoints. Authentication rides
// on an HTTP-only session cookie so the dashboard works cross-site.
type AdminHandler struct {
	users        *services.UserService
	payments     *services.PaymentService
	passwords    ports.PasswordPort
	tokens       *auth.TokenManager
	creds        AdminCredentials
	cookieName   string
	cookieMaxAge time.Duration
	log          zerolog.Logger
}

func NewAdminHandler(
	users *services.UserService,
	payments *services.PaymentService,
	passwords ports.PasswordPort,
	tokens *auth.TokenManager,
	creds AdminCredentials,
	cookieName string,
	cookieMaxAge time.Duration,
	baseLogger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		users:        users,
		payments:     payments,
		passwords:    passwords,
		tokens:       tokens,
		creds:        creds,
		cookieName:   cookieName,
		cookieMaxAge: cookieMaxAge,
		log:          baseLogger.With().Str("component", "admin_handler").Logger(),
	}
}

// Login handles POST /admin/login and sets the session cookie.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if body.Username != h.creds.Username || !h.passwords.Verify(body.Password, h.creds.PasswordHash) {
		respond.Error(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	token, err := h.tokens.GenerateAdmin(body.Username)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	respond.JSON(w, http.StatusOK, respond.Message{Message: "login successful"})
}

// Logout handles POST /admin/logout and clears the session cookie.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	respond.JSON(w, http.StatusOK, respond.Message{Message: "logout successful"})
}

// ListUsers handles GET /admin/users with filter/sort/range parameters.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query(), userListFields)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	users, total, err := h.users.List(r.Context(), params)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Range", contentRange("users", params, len(users), total))
	respond.JSON(w, http.StatusOK, map[string]any{
		"data":  users,
		"total": total,
	})
}

// GetUser handles GET /admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// adminUserPatch extends the self-service patch with the fields only
// the back office may change.
type adminUserPatch struct {
	profilePatch
	Email         *string `json:"email"`
	EmailVerified *bool   `json:"emailVerified"`
	PhoneVerified *bool   `json:"phoneVerified"`
}

// UpdateUser handles PUT /admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed user id")
		return
	}

	var body adminUserPatch
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	patch := domain.UserPatch{
		Name:          body.Name,
		Phone:         body.Phone,
		DOB:           body.DOB,
		BankAccount:   body.BankAccount,
		PhotoURL:      body.PhotoURL,
		Email:         body.Email,
		EmailVerified: body.EmailVerified,
		PhoneVerified: body.PhoneVerified,
	}

	user, err := h.users.UpdateProfile(r.Context(), id, patch, true)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Message{Message: "user deleted"})
}

// ApproveUser handles PUT /admin/approve-user.
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == uuid.Nil {
		respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}

	user, err := h.users.Approve(r.Context(), body.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// ListPayments handles GET /admin/payments.
func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListAll(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Range", contentRange("payments", ports.ListParams{}, len(payments), len(payments)))
	respond.JSON(w, http.StatusOK, payments)
}

// GetPayment handles GET /admin/payments/{id}.
func (h *AdminHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed payment id")
		return
	}

	payment, err := h.payments.GetByID(r.Context(), id, uuid.Nil, true)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}

// UpdatePayment handles PUT /admin/payments/{id}. Only the amount and
// type of a still-requested payment may change here; status transitions
// have their own endpoint.
func (h *AdminHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed payment id")
		return
	}

	var body struct {
		Amount *float64            `json:"amount"`
		Type   *domain.PaymentType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	payment, err := h.payments.UpdateDetails(r.Context(), id, services.PaymentPatch{
		Amount: body.Amount,
		Type:   body.Type,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}

// DeletePayment handles DELETE /admin/payments/{id}.
func (h *AdminHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed payment id")
		return
	}

	if err := h.payments.Delete(r.Context(), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Message{Message: "payment deleted"})
}
