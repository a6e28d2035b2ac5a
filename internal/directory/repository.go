package directory

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtwworks/platform/internal/shared/errors"
	"github.com/rtwworks/platform/internal/shared/types"
)

// Repository provides read and admin access to the user directory
type Repository interface {
	ListAll(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id types.ID) (*User, error)
	Save(ctx context.Context, u *User) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new directory repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListAll returns every directory entry
func (r *PostgresRepository) ListAll(ctx context.Context) ([]User, error) {
	query := `SELECT id, name, email, role, created_at, updated_at FROM rtw.users ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read users")
	}

	return users, nil
}

// FindByID retrieves a directory entry by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*User, error) {
	query := `SELECT id, name, email, role, created_at, updated_at FROM rtw.users WHERE id = $1`

	u := &User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return u, nil
}

// Save inserts a directory entry
func (r *PostgresRepository) Save(ctx context.Context, u *User) error {
	query := `
		INSERT INTO rtw.users (id, name, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("user already exists")
		}
		return errors.Wrap(err, "failed to save user")
	}

	return nil
}
