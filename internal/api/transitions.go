package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Shreya9code/ewastetrack/internal/auth"
	"github.com/Shreya9code/ewastetrack/internal/lifecycle"
	"github.com/Shreya9code/ewastetrack/internal/model"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

// TransitionsHandler moves items through their lifecycle.
type TransitionsHandler struct {
	DB      *sql.DB
	Service *lifecycle.Service
}

type updateStatusRequest struct {
	QRID           string `json:"qrId"`
	Role           string `json:"role"`
	LicenseNo      string `json:"licenseNo"`
	RegistrationNo string `json:"registrationNo"`
	Notes          string `json:"notes"`
}

type updateStatusResponse struct {
	Success   bool   `json:"success"`
	NewStatus string `json:"newStatus,omitempty"`
	Message   string `json:"message"`
	Item      any    `json:"item,omitempty"`
}

type acceptRequest struct {
	LicenseNo string `json:"licenseNo"`
	Notes     string `json:"notes"`
}

type setStatusRequest struct {
	Status model.Status `json:"status"`
	Notes  string       `json:"notes"`
}

// transitionStatus maps a lifecycle error to an HTTP status code.
func transitionStatus(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrItemNotFound),
		errors.Is(err, lifecycle.ErrCredentialNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrInvalidRole),
		errors.Is(err, lifecycle.ErrMissingCredential),
		errors.Is(err, lifecycle.ErrInvalidStatusTransition),
		errors.Is(err, lifecycle.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrCredentialMismatch):
		return http.StatusForbidden
	case errors.Is(err, lifecycle.ErrAlreadyAccepted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// transitionMessage is the client-facing text for err. Faults are not
// described.
func transitionMessage(err error, code int) string {
	if code == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func callerOf(claims *auth.Claims) lifecycle.Caller {
	return lifecycle.Caller{AccountID: claims.AccountID, Staff: claims.IsStaff()}
}

// UpdateStatus handles POST /ewastes/update-status, the role-gated
// transition. Failures answer {success:false, message}.
func (h *TransitionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonResponse(w, http.StatusBadRequest, updateStatusResponse{Message: "invalid request body"})
		return
	}
	if req.QRID == "" || req.Role == "" {
		jsonResponse(w, http.StatusBadRequest, updateStatusResponse{Message: "qrId and role required"})
		return
	}

	claims := GetClaims(r.Context())
	res, err := h.Service.AttemptTransition(r.Context(), lifecycle.TransitionRequest{
		Serial:         req.QRID,
		Role:           req.Role,
		LicenseNo:      req.LicenseNo,
		RegistrationNo: req.RegistrationNo,
		Notes:          req.Notes,
		Caller:         callerOf(claims),
	})
	if err != nil {
		code := transitionStatus(err)
		if code == http.StatusInternalServerError {
			slog.Error("transition failed", "serial", req.QRID, "role", req.Role, "error", err)
		} else {
			slog.Warn("transition rejected", "serial", req.QRID, "role", req.Role, "account", claims.AccountID, "reason", err)
		}
		jsonResponse(w, code, updateStatusResponse{Message: transitionMessage(err, code)})
		return
	}

	label := res.Step.To.Label()
	slog.Info("item advanced",
		"item", res.Item.ID,
		"serial", res.Item.Serial,
		"from", res.Step.From,
		"to", res.Step.To,
		"actor", res.Actor.ExternalAccountID)
	jsonResponse(w, http.StatusOK, updateStatusResponse{
		Success:   true,
		NewStatus: label,
		Message:   "Item marked as " + label,
		Item:      res.Item,
	})
}

// Accept handles PUT /ewastes/{id}/accept. A vendor that omits licenseNo
// accepts with the license from its own profile.
func (h *TransitionsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if req.LicenseNo == "" && claims.Role == model.RoleVendor {
		v, err := store.GetVendor(r.Context(), h.DB, claims.AccountID)
		if err != nil {
			storeError(w, err, "accept item")
			return
		}
		if v != nil {
			req.LicenseNo = v.LicenseNumber
		}
	}

	res, err := h.Service.Accept(r.Context(), lifecycle.AcceptRequest{
		ItemID:    r.PathValue("id"),
		LicenseNo: req.LicenseNo,
		Notes:     req.Notes,
		Caller:    callerOf(claims),
	})
	if err != nil {
		code := transitionStatus(err)
		if code == http.StatusInternalServerError {
			slog.Error("accept failed", "item", r.PathValue("id"), "error", err)
		}
		jsonError(w, code, transitionMessage(err, code))
		return
	}

	slog.Info("item accepted", "item", res.Item.ID, "vendor", res.Actor.ExternalAccountID)
	jsonResponse(w, http.StatusOK, res.Item)
}

// MarkInTransit handles PUT /ewastes/{id}/in-transit.
func (h *TransitionsHandler) MarkInTransit(w http.ResponseWriter, r *http.Request) {
	h.forceStatus(w, r, model.StatusInTransit)
}

// MarkDone handles PUT /ewastes/{id}/done.
func (h *TransitionsHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	h.forceStatus(w, r, model.StatusDone)
}

// SetStatus handles PUT /ewastes/{id}/status.
func (h *TransitionsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	h.forceStatus(w, r, "")
}

// forceStatus applies an administrative status set. An empty target is read
// from the request body.
func (h *TransitionsHandler) forceStatus(w http.ResponseWriter, r *http.Request, target model.Status) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if target == "" {
		target = req.Status
	}

	claims := GetClaims(r.Context())
	item, err := h.Service.ForceStatus(r.Context(), lifecycle.OverrideRequest{
		ItemID: r.PathValue("id"),
		Target: target,
		Actor:  claims.AccountID,
		Notes:  req.Notes,
	})
	if err != nil {
		code := transitionStatus(err)
		if code == http.StatusInternalServerError {
			slog.Error("status override failed", "item", r.PathValue("id"), "status", target, "error", err)
		}
		jsonError(w, code, transitionMessage(err, code))
		return
	}

	slog.Info("item status overridden", "user", claims.AccountID, "item", item.ID, "status", item.Status)
	jsonResponse(w, http.StatusOK, item)
}
