package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mainford/internal/auth"
	"mainford/internal/core/domain"
	"mainford/internal/core/services"
	"mainford/internal/http/middleware"
	"mainford/internal/http/respond"
)

// maxUploadBytes caps the registration form, screenshot included.
const maxUploadBytes = 10 << 20

// UserHandler serves the member-facing endpoints.
type UserHandler struct {
	users  *services.UserService
	tokens *auth.TokenManager
	log    zerolog.Logger
}

func NewUserHandler(users *services.UserService, tokens *auth.TokenManager, baseLogger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		tokens: tokens,
		log:    baseLogger.With().Str("component", "user_handler").Logger(),
	}
}

// Register handles POST /users/register (multipart form).
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	var dob time.Time
	if raw := r.FormValue("dob"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "dob must be formatted as YYYY-MM-DD")
			return
		}
		dob = parsed
	}

	in := services.RegisterInput{
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		DOB:          dob,
		Password:     r.FormValue("password"),
		ReferralCode: r.FormValue("referralCode"),
	}

	if file, header, err := formFile(r, "screenshot", "photo"); err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if readErr != nil {
			respond.Error(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}
		in.ProofName = header.Filename
		in.ProofData = data
	}

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	token, err := h.tokens.GenerateUser(user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"user":  user,
		"token": token,
	})
}

// formFile returns the first present file field among the given names.
func formFile(r *http.Request, names ...string) (multipart.File, *multipart.FileHeader, error) {
	var err error
	for _, name := range names {
		var file multipart.File
		var header *multipart.FileHeader
		if file, header, err = r.FormFile(name); err == nil {
			return file, header, nil
		}
	}
	return nil, nil, err
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	token, err := h.tokens.GenerateUser(user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// Profile handles GET /users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.users.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// profilePatch is the JSON shape of a self-service profile update.
// Fields outside it are ignored by construction.
type profilePatch struct {
	Name        *string             `json:"name"`
	Phone       *string             `json:"phone"`
	DOB         *time.Time          `json:"dob"`
	BankAccount *domain.BankAccount `json:"accountDetails"`
	PhotoURL    *string             `json:"photoUrl"`
}

// UpdateProfile handles PUT /users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body profilePatch
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	patch := domain.UserPatch{
		Name:        body.Name,
		Phone:       body.Phone,
		DOB:         body.DOB,
		BankAccount: body.BankAccount,
		PhotoURL:    body.PhotoURL,
	}

	user, err := h.users.UpdateProfile(r.Context(), claims.UserID, patch, false)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// Referrals handles GET /users/referrals.
func (h *UserHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	tree, count, err := h.users.ReferralTree(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"referralCount": count,
		"referrals":     tree,
	})
}

// VerifyEmail handles GET /users/verify-email?token=...
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.users.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Message{Message: "email verified"})
}
