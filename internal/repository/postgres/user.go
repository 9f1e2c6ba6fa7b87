package postgres

import (
	"context"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"

	"github.com/jmoiron/sqlx"
)

const userSelect = `SELECT id, first_name, last_name, email, password_hash, date_of_birth, enabled, account_locked, created_on, updated_on FROM users`

type userRepository struct {
	db sqlx.ExtContext
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (first_name, last_name, email, password_hash, date_of_birth, enabled, account_locked, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`
	now := time.Now()
	logger.DatabaseCall("insert", query, "email", u.Email)
	err := r.db.QueryRowxContext(ctx, query, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.DateOfBirth, u.Enabled, u.AccountLocked, now).Scan(&u.ID)
	if err != nil {
		return mapError(err)
	}
	u.CreatedOn, u.UpdatedOn = now, now
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	if err := sqlx.GetContext(ctx, r.db, u, userSelect+` WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "no user found with the ID: %d", id)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u := &domain.User{}
	if err := sqlx.GetContext(ctx, r.db, u, userSelect+` WHERE LOWER(email) = LOWER($1)`, email); err != nil {
		return nil, notFound(err, "no user found with the email: %s", email)
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET first_name=$1, last_name=$2, email=$3, password_hash=$4, date_of_birth=$5, enabled=$6, account_locked=$7, updated_on=$8 WHERE id=$9`
	u.UpdatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.DateOfBirth, u.Enabled, u.AccountLocked, u.UpdatedOn, u.ID)
	return mapError(err)
}
