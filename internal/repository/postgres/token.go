package postgres

import (
	"context"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"

	"github.com/jmoiron/sqlx"
)

type tokenRepository struct {
	db sqlx.ExtContext
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, t *domain.Token) error {
	query := `INSERT INTO tokens (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return mapError(r.db.QueryRowxContext(ctx, query, t.Token, t.UserID, t.CreatedAt, t.ExpiresAt).Scan(&t.ID))
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	t := &domain.Token{}
	query := `SELECT id, token, user_id, created_at, expires_at, validated_at FROM tokens WHERE token = $1 ORDER BY created_at DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, r.db, t, query, token); err != nil {
		return nil, notFound(err, "invalid activation token")
	}
	return t, nil
}

func (r *tokenRepository) Update(ctx context.Context, t *domain.Token) error {
	query := `UPDATE tokens SET validated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, t.ValidatedAt, t.ID)
	return mapError(err)
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM tokens WHERE validated_at IS NULL AND expires_at < $1`
	logger.DatabaseCall("delete", query, "before", before)
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		logger.DatabaseResult("delete", 0, err)
		return 0, mapError(err)
	}
	rows, err := res.RowsAffected()
	logger.DatabaseResult("delete", rows, err)
	return rows, err
}
