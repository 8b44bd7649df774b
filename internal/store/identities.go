package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shreya9code/ewastetrack/internal/model"
)

// UpsertDonor creates the donor record for an external account on first use
// and updates its profile afterwards.
func UpsertDonor(ctx context.Context, db *sql.DB, externalID string, p model.Profile) (*model.Donor, error) {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO donors (external_account_id, name, email, contact, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (external_account_id) DO UPDATE SET
		     name = excluded.name, email = excluded.email, contact = excluded.contact,
		     address = excluded.address, updated_at = excluded.updated_at`,
		externalID, p.Name, p.Email, p.Contact, p.Address, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting donor: %w", err)
	}
	return GetDonor(ctx, db, externalID)
}

// GetDonor returns a donor by external account ID.
func GetDonor(ctx context.Context, db *sql.DB, externalID string) (*model.Donor, error) {
	d := &model.Donor{}
	err := db.QueryRowContext(ctx,
		`SELECT external_account_id, name, email, contact, address, created_at, updated_at
		 FROM donors WHERE external_account_id = ?`, externalID,
	).Scan(&d.ExternalAccountID, &d.Name, &d.Email, &d.Contact, &d.Address, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting donor: %w", err)
	}
	return d, nil
}

// UpsertVendor creates or updates a vendor. The license number must be unique
// across vendors.
func UpsertVendor(ctx context.Context, db *sql.DB, externalID, licenseNumber string, p model.Profile) (*model.Vendor, error) {
	if licenseNumber == "" {
		return nil, fmt.Errorf("upserting vendor: license number required")
	}

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO vendors (external_account_id, license_number, name, email, contact, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (external_account_id) DO UPDATE SET
		     license_number = excluded.license_number, name = excluded.name, email = excluded.email,
		     contact = excluded.contact, address = excluded.address, updated_at = excluded.updated_at`,
		externalID, licenseNumber, p.Name, p.Email, p.Contact, p.Address, now, now,
	)
	if isUniqueViolation(err, "vendors.license_number") {
		return nil, fmt.Errorf("upserting vendor: %w", &ConflictError{Field: "licenseNumber"})
	}
	if err != nil {
		return nil, fmt.Errorf("upserting vendor: %w", err)
	}
	return GetVendor(ctx, db, externalID)
}

// GetVendor returns a vendor by external account ID.
func GetVendor(ctx context.Context, db *sql.DB, externalID string) (*model.Vendor, error) {
	v := &model.Vendor{}
	err := db.QueryRowContext(ctx,
		`SELECT external_account_id, license_number, name, email, contact, address, created_at, updated_at
		 FROM vendors WHERE external_account_id = ?`, externalID,
	).Scan(&v.ExternalAccountID, &v.LicenseNumber, &v.Name, &v.Email, &v.Contact, &v.Address, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting vendor: %w", err)
	}
	return v, nil
}

// UpsertCompany creates or updates a processing company. The registration
// number must be unique across companies.
func UpsertCompany(ctx context.Context, db *sql.DB, externalID, registrationNumber string, p model.Profile) (*model.Company, error) {
	if registrationNumber == "" {
		return nil, fmt.Errorf("upserting company: registration number required")
	}

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO companies (external_account_id, registration_number, name, email, contact, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (external_account_id) DO UPDATE SET
		     registration_number = excluded.registration_number, name = excluded.name, email = excluded.email,
		     contact = excluded.contact, address = excluded.address, updated_at = excluded.updated_at`,
		externalID, registrationNumber, p.Name, p.Email, p.Contact, p.Address, now, now,
	)
	if isUniqueViolation(err, "companies.registration_number") {
		return nil, fmt.Errorf("upserting company: %w", &ConflictError{Field: "registrationNumber"})
	}
	if err != nil {
		return nil, fmt.Errorf("upserting company: %w", err)
	}
	return GetCompany(ctx, db, externalID)
}

// GetCompany returns a company by external account ID.
func GetCompany(ctx context.Context, db *sql.DB, externalID string) (*model.Company, error) {
	c := &model.Company{}
	err := db.QueryRowContext(ctx,
		`SELECT external_account_id, registration_number, name, email, contact, address, created_at, updated_at
		 FROM companies WHERE external_account_id = ?`, externalID,
	).Scan(&c.ExternalAccountID, &c.RegistrationNumber, &c.Name, &c.Email, &c.Contact, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting company: %w", err)
	}
	return c, nil
}

// ResolveCredential looks a credential up in the collection the role selects:
// license numbers for vendors, registration numbers for companies. Matching is
// exact and case-sensitive and never falls back to another collection.
// It returns nil, nil when nothing matches.
func ResolveCredential(ctx context.Context, db *sql.DB, role, credential string) (*model.Identity, error) {
	var query string
	switch role {
	case model.RoleVendor:
		query = `SELECT external_account_id, name FROM vendors WHERE license_number = ?`
	case model.RoleCompany:
		query = `SELECT external_account_id, name FROM companies WHERE registration_number = ?`
	default:
		return nil, fmt.Errorf("resolving credential: no credential collection for role %q", role)
	}

	id := &model.Identity{Role: role}
	err := db.QueryRowContext(ctx, query, credential).Scan(&id.ExternalAccountID, &id.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving credential: %w", err)
	}
	return id, nil
}
