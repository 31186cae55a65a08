// Package repository provides persistence implementations for the auth service.
package repository

import (
	"context"
	"database/sql"

	"github.com/akovalenko/sessionauth/internal/models"
)

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given
// database connection. db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// UserExists checks whether a user with the specified username exists in the database.
// It returns true if the user exists, false otherwise.
// If an error occurs during the query, it is returned.
func (r *PostgresUserRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists)
	return exists, err
}

// CreateUser inserts a new user record.
// Returns any error encountered while executing the insertion, including
// unique-constraint violations on the username.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user models.User) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, username, first_name, last_name, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.FirstName, user.LastName, user.PasswordHash,
	)
	return err
}

// UserByUsername returns the user with the given username, including the
// password hash for credential verification. Returns sql.ErrNoRows if no
// such user exists.
func (r *PostgresUserRepository) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT id, username, first_name, last_name, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID returns the user with the given ID. Returns sql.ErrNoRows if no
// such user exists.
func (r *PostgresUserRepository) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT id, username, first_name, last_name, password_hash FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
