package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-report-api/internal/models"
)

// ErrAdminsExist is returned by CreateFirst once any admin row is present.
var ErrAdminsExist = errors.New("admin account already exists")

const adminColumns = `id, username, email, password_hash, role, active, created_at, last_login`

// AdminRepository provides database access for administrator accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an admin by username.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// Count returns the number of admin accounts.
func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM admins`); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return total, nil
}

// UpdateLastLogin updates the last_login timestamp for an admin.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE admins SET last_login = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateFirst inserts the bootstrap admin. The emptiness check and the insert
// share one transaction holding a table lock, so of two concurrent callers
// only one can succeed; the other gets ErrAdminsExist.
func (r *AdminRepository) CreateFirst(ctx context.Context, admin *models.Admin) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admin bootstrap: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `LOCK TABLE admins IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock admins: %w", err)
	}

	var existing int
	if err = tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM admins`); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if existing > 0 {
		err = ErrAdminsExist
		return err
	}

	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO admins (username, email, password_hash, role, active, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insert, admin.Username, admin.Email, admin.PasswordHash, admin.Role, admin.Active, admin.CreatedAt).Scan(&admin.ID); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit admin bootstrap: %w", err)
	}
	return nil
}
