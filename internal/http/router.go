package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"mainford/internal/auth"
	"mainford/internal/http/handlers"
	"mainford/internal/http/middleware"
	"mainford/internal/http/respond"
)

// RouterConfig ties the handlers and auth settings to the route table.
type RouterConfig struct {
	Users       *handlers.UserHandler
	Admin       *handlers.AdminHandler
	Payments    *handlers.PaymentHandler
	Tokens      *auth.TokenManager
	CookieName  string
	CORSOrigins []string
	Logger      zerolog.Logger
}

// NewRouter assembles the route table with its middleware chains.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireUser := middleware.RequireUser(cfg.Tokens)
	requireAdmin := middleware.RequireAdmin(cfg.Tokens, cfg.CookieName)

	mux.HandleFunc("POST /users/register", cfg.Users.Register)
	mux.HandleFunc("POST /users/login", cfg.Users.Login)
	mux.HandleFunc("GET /users/verify-email", cfg.Users.VerifyEmail)
	mux.Handle("GET /users/profile", requireUser(http.HandlerFunc(cfg.Users.Profile)))
	mux.Handle("PUT /users/profile", requireUser(http.HandlerFunc(cfg.Users.UpdateProfile)))
	mux.Handle("GET /users/referrals", requireUser(http.HandlerFunc(cfg.Users.Referrals)))

	mux.HandleFunc("POST /admin/login", cfg.Admin.Login)
	mux.HandleFunc("POST /admin/logout", cfg.Admin.Logout)
	mux.Handle("GET /admin/users", requireAdmin(http.HandlerFunc(cfg.Admin.ListUsers)))
	mux.Handle("GET /admin/users/{id}", requireAdmin(http.HandlerFunc(cfg.Admin.GetUser)))
	mux.Handle("PUT /admin/users/{id}", requireAdmin(http.HandlerFunc(cfg.Admin.UpdateUser)))
	mux.Handle("DELETE /admin/users/{id}", requireAdmin(http.HandlerFunc(cfg.Admin.DeleteUser)))
	mux.Handle("PUT /admin/approve-user", requireAdmin(http.HandlerFunc(cfg.Admin.ApproveUser)))
	mux.Handle("GET /admin/payments", requireAdmin(http.HandlerFunc(cfg.Admin.ListPayments)))
	mux.Handle("GET /admin/payments/{id}", requireAdmin(http.HandlerFunc(cfg.Admin.GetPayment)))
	mux.Handle("PUT /admin/payments/{id}", requireAdmin(http.HandlerFunc(cfg.Admin.UpdatePayment)))
	mux.Handle("DELETE /admin/payments/{id}", requireAdmin(http.HandlerFunc(cfg.Admin.DeletePayment)))

	mux.Handle("POST /payments/withdrawal", requireUser(http.HandlerFunc(cfg.Payments.RequestWithdrawal)))
	mux.Handle("POST /payments/add-balance", requireAdmin(http.HandlerFunc(cfg.Payments.AddBalance)))
	mux.Handle("PUT /payments/update-status/{id}", requireAdmin(http.HandlerFunc(cfg.Payments.UpdateStatus)))
	mux.Handle("GET /payments/requested", requireAdmin(http.HandlerFunc(cfg.Payments.Requested)))
	mux.Handle("GET /payments/user-payments", requireUser(http.HandlerFunc(cfg.Payments.UserStatistics)))
	mux.Handle("GET /payments/{id}", requireUser(http.HandlerFunc(cfg.Payments.GetByID)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not Found")
	})

	var handler http.Handler = mux
	handler = middleware.RequestLogger(cfg.Logger)(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	return handler
}
