package api

import (
	"database/sql"
	"net/http"

	"github.com/Shreya9code/ewastetrack/internal/lifecycle"
	"github.com/Shreya9code/ewastetrack/internal/metrics"
	"github.com/Shreya9code/ewastetrack/internal/model"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	repo := &store.Repository{DB: db}
	service := &lifecycle.Service{Items: repo, Directory: repo, Metrics: m}

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	profilesHandler := &ProfilesHandler{DB: db}
	ewastesHandler := &EwastesHandler{DB: db, Metrics: m}
	transitionsHandler := &TransitionsHandler{DB: db, Service: service}
	healthHandler := &HealthHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireDonor := RequireRole(model.RoleDonor)
	requireVendor := RequireRole(model.RoleVendor)
	requireCompany := RequireRole(model.RoleCompany)

	// Public.
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Session.
	mux.Handle("POST /auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /auth/password", authMW(requireAdmin(http.HandlerFunc(authHandler.ChangePassword))))

	// Staff accounts (admin only).
	mux.Handle("GET /users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Own directory profiles.
	mux.Handle("GET /donors/me", authMW(requireDonor(http.HandlerFunc(profilesHandler.GetDonor))))
	mux.Handle("PUT /donors/me", authMW(requireDonor(http.HandlerFunc(profilesHandler.PutDonor))))
	mux.Handle("GET /vendors/me", authMW(requireVendor(http.HandlerFunc(profilesHandler.GetVendor))))
	mux.Handle("PUT /vendors/me", authMW(requireVendor(http.HandlerFunc(profilesHandler.PutVendor))))
	mux.Handle("GET /companies/me", authMW(requireCompany(http.HandlerFunc(profilesHandler.GetCompany))))
	mux.Handle("PUT /companies/me", authMW(requireCompany(http.HandlerFunc(profilesHandler.PutCompany))))

	// Items.
	mux.Handle("POST /ewastes", authMW(RequireRole(model.RoleDonor, model.RoleAdmin)(http.HandlerFunc(ewastesHandler.Create))))
	mux.Handle("GET /ewastes", authMW(RequireRole(model.RoleAdmin, model.RoleVendor, model.RoleCompany)(http.HandlerFunc(ewastesHandler.List))))
	mux.Handle("GET /ewastes/{id}", authMW(http.HandlerFunc(ewastesHandler.Get)))
	mux.Handle("GET /ewastes/serial/{serial}", authMW(http.HandlerFunc(ewastesHandler.GetBySerial)))
	mux.Handle("GET /ewastes/donor/{donorId}", authMW(RequireRole(model.RoleDonor, model.RoleAdmin)(http.HandlerFunc(ewastesHandler.ListByDonor))))
	mux.Handle("PUT /ewastes/{id}", authMW(RequireRole(model.RoleDonor, model.RoleAdmin)(http.HandlerFunc(ewastesHandler.Update))))

	// Lifecycle.
	mux.Handle("POST /ewastes/update-status", authMW(http.HandlerFunc(transitionsHandler.UpdateStatus)))
	mux.Handle("PUT /ewastes/{id}/accept", authMW(RequireRole(model.RoleVendor, model.RoleAdmin)(http.HandlerFunc(transitionsHandler.Accept))))
	mux.Handle("PUT /ewastes/{id}/in-transit", authMW(requireAdmin(http.HandlerFunc(transitionsHandler.MarkInTransit))))
	mux.Handle("PUT /ewastes/{id}/done", authMW(requireAdmin(http.HandlerFunc(transitionsHandler.MarkDone))))
	mux.Handle("PUT /ewastes/{id}/status", authMW(requireAdmin(http.HandlerFunc(transitionsHandler.SetStatus))))

	return mux
}
