package model

import (
	"errors"
	"time"
)

// User is a staff account that logs in with a password. Donors, vendors and
// companies authenticate with an external identity provider instead.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleDonor   = "donor"
	RoleVendor  = "vendor"
	RoleCompany = "company"
)

// IsPartyRole reports whether role is one of the externally authenticated
// roles backed by an Identity Directory collection.
func IsPartyRole(role string) bool {
	switch role {
	case RoleDonor, RoleVendor, RoleCompany:
		return true
	}
	return false
}

// RoleIn reports whether role is one of allowed. Empty and unknown roles fail closed.
func RoleIn(role string, allowed ...string) bool {
	if role == "" {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// MinPasswordLength is the shortest accepted staff password.
const MinPasswordLength = 8

// ValidatePassword checks a staff password against the length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
