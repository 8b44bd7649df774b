package model

import "time"

// Profile holds the mutable attributes shared by every identity record.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// Donor reports e-waste.
type Donor struct {
	ExternalAccountID string `json:"externalAccountId"`
	Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Vendor picks items up. LicenseNumber authorizes pickup transitions.
type Vendor struct {
	ExternalAccountID string `json:"externalAccountId"`
	LicenseNumber     string `json:"licenseNumber"`
	Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Company completes disposal. RegistrationNumber authorizes completion.
type Company struct {
	ExternalAccountID  string `json:"externalAccountId"`
	RegistrationNumber string `json:"registrationNumber"`
	Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the result of resolving a credential in the directory.
type Identity struct {
	Role              string `json:"role"`
	ExternalAccountID string `json:"externalAccountId"`
	Name              string `json:"name"`
}
