package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/egresados-intake/internal/models"
)

// AdminRepository manages reviewer accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername fetches an account. sql.ErrNoRows is returned unwrapped when
// the username is unknown.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := r.db.Rebind("SELECT id, usuario, password_hash, created_at FROM admins WHERE usuario = ? LIMIT 1")
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, err
	}
	return &admin, nil
}

// Create inserts an account. A taken username yields ErrDuplicateUsername.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	query := "INSERT INTO admins (usuario, password_hash, created_at) VALUES (?, ?, ?)"
	args := []interface{}{admin.Username, admin.PasswordHash, admin.CreatedAt}

	if r.db.DriverName() == "postgres" {
		err := r.db.QueryRowxContext(ctx, r.db.Rebind(query+" RETURNING id"), args...).Scan(&admin.ID)
		return r.createError(err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return r.createError(err)
	}
	if admin.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("read admin id: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash of an existing account.
func (r *AdminRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	query := r.db.Rebind("UPDATE admins SET password_hash = ? WHERE usuario = ?")
	res, err := r.db.ExecContext(ctx, query, passwordHash, username)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return requireAffected(res, "update admin password")
}

func (r *AdminRepository) createError(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("create admin: %w", ErrDuplicateUsername)
	default:
		return fmt.Errorf("create admin: %w", err)
	}
}
