package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shreya9code/ewastetrack/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

// CreateUser creates a staff account. Usernames are unique among active accounts.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, model.RoleAdmin,
	)
	if isUniqueViolation(err, "users.username") {
		return nil, fmt.Errorf("creating user: %w", &ConflictError{Field: "username"})
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a staff account by ID, including soft-deleted ones.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetActiveUserByUsername returns the active staff account with the given
// username, or nil.
func GetActiveUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all active staff accounts.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserPassword replaces an active account's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return false, fmt.Errorf("updating user password: %w", err)
	}
	return applied(result)
}

// DeleteUser soft-deletes a staff account.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting user: %w", err)
	}
	return applied(result)
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
