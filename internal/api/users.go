package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shreya9code/ewastetrack/internal/model"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

// UsersHandler manages staff accounts (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, string(hash))
	if err != nil {
		storeError(w, err, "create user")
		return
	}

	slog.Info("user created", "user", GetClaims(r.Context()).AccountID, "new_user", req.Username)
	jsonResponse(w, http.StatusCreated, user)
}

// ResetPassword handles PUT /users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	ok, err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash))
	if err != nil {
		storeError(w, err, "reset password")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	slog.Info("user password reset", "user", GetClaims(r.Context()).AccountID, "target_user", fmt.Sprintf("id:%d", id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "delete user")
		return
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	claims := GetClaims(r.Context())
	if target.Username == claims.AccountID {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if _, err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete user")
		return
	}

	slog.Info("user deleted", "user", claims.AccountID, "deleted_user", target.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
