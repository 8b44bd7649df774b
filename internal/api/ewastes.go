package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/Shreya9code/ewastetrack/internal/metrics"
	"github.com/Shreya9code/ewastetrack/internal/model"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

// EwastesHandler handles item reporting and lookups.
type EwastesHandler struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

type createEwasteRequest struct {
	Serial  string `json:"serial"`
	DonorID string `json:"donorId"`
	model.ItemDetails
}

// Create handles POST /ewastes. Donors may only report items for themselves.
func (h *EwastesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEwasteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DonorID == "" {
		jsonError(w, http.StatusBadRequest, "donorId required")
		return
	}

	claims := GetClaims(r.Context())
	if !claims.IsStaff() && claims.AccountID != req.DonorID {
		jsonError(w, http.StatusForbidden, "donorId does not match caller")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.DonorID, req.Serial, req.ItemDetails)
	if err != nil {
		storeError(w, err, "create item")
		return
	}
	h.Metrics.IncItemsCreated()

	slog.Info("item reported", "account", claims.AccountID, "item", item.ID, "serial", item.Serial)
	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /ewastes with an optional status filter.
func (h *EwastesHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, status)
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.EwasteItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /ewastes/{id}.
func (h *EwastesHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// GetBySerial handles GET /ewastes/serial/{serial}, the QR scan lookup.
func (h *EwastesHandler) GetBySerial(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItemBySerial(r.Context(), h.DB, r.PathValue("serial"))
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ListByDonor handles GET /ewastes/donor/{donorId}. The donor ID is matched
// exactly as given.
func (h *EwastesHandler) ListByDonor(w http.ResponseWriter, r *http.Request) {
	donorID := r.PathValue("donorId")

	claims := GetClaims(r.Context())
	if !claims.IsStaff() && claims.AccountID != donorID {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	items, err := store.ListItemsByDonor(r.Context(), h.DB, donorID)
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	if items == nil {
		items = []model.EwasteItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Update handles PUT /ewastes/{id}. Only descriptive attributes can change,
// and only before pickup.
func (h *EwastesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req model.ItemDetails
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	claims := GetClaims(r.Context())
	if !claims.IsStaff() && claims.AccountID != item.DonorID {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	ok, err := store.UpdateItemDetails(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	if !ok {
		jsonError(w, http.StatusConflict, "item can only be edited while waiting for pickup")
		return
	}

	item, err = store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "update item")
		return
	}

	slog.Info("item updated", "account", claims.AccountID, "item", id)
	jsonResponse(w, http.StatusOK, item)
}
