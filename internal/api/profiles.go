package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/Shreya9code/ewastetrack/internal/model"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

// ProfilesHandler lets externally authenticated parties maintain their own
// Identity Directory record. The external account ID always comes from the
// token.
type ProfilesHandler struct {
	DB *sql.DB
}

type profileRequest struct {
	model.Profile
	LicenseNumber      string `json:"licenseNumber"`
	RegistrationNumber string `json:"registrationNumber"`
}

// GetDonor handles GET /donors/me.
func (h *ProfilesHandler) GetDonor(w http.ResponseWriter, r *http.Request) {
	d, err := store.GetDonor(r.Context(), h.DB, GetClaims(r.Context()).AccountID)
	if err != nil {
		storeError(w, err, "get donor")
		return
	}
	if d == nil {
		jsonError(w, http.StatusNotFound, "donor profile not found")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// PutDonor handles PUT /donors/me.
func (h *ProfilesHandler) PutDonor(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accountID := GetClaims(r.Context()).AccountID
	d, err := store.UpsertDonor(r.Context(), h.DB, accountID, req.Profile)
	if err != nil {
		storeError(w, err, "save donor")
		return
	}

	slog.Info("donor profile saved", "account", accountID)
	jsonResponse(w, http.StatusOK, d)
}

// GetVendor handles GET /vendors/me.
func (h *ProfilesHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
	v, err := store.GetVendor(r.Context(), h.DB, GetClaims(r.Context()).AccountID)
	if err != nil {
		storeError(w, err, "get vendor")
		return
	}
	if v == nil {
		jsonError(w, http.StatusNotFound, "vendor profile not found")
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// PutVendor handles PUT /vendors/me.
func (h *ProfilesHandler) PutVendor(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LicenseNumber == "" {
		jsonError(w, http.StatusBadRequest, "licenseNumber required")
		return
	}

	accountID := GetClaims(r.Context()).AccountID
	v, err := store.UpsertVendor(r.Context(), h.DB, accountID, req.LicenseNumber, req.Profile)
	if err != nil {
		storeError(w, err, "save vendor")
		return
	}

	slog.Info("vendor profile saved", "account", accountID)
	jsonResponse(w, http.StatusOK, v)
}

// GetCompany handles GET /companies/me.
func (h *ProfilesHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := store.GetCompany(r.Context(), h.DB, GetClaims(r.Context()).AccountID)
	if err != nil {
		storeError(w, err, "get company")
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "company profile not found")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// PutCompany handles PUT /companies/me.
func (h *ProfilesHandler) PutCompany(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RegistrationNumber == "" {
		jsonError(w, http.StatusBadRequest, "registrationNumber required")
		return
	}

	accountID := GetClaims(r.Context()).AccountID
	c, err := store.UpsertCompany(r.Context(), h.DB, accountID, req.RegistrationNumber, req.Profile)
	if err != nil {
		storeError(w, err, "save company")
		return
	}

	slog.Info("company profile saved", "account", accountID)
	jsonResponse(w, http.StatusOK, c)
}
