package postgres

import (
	"context"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

const tableFeedbacks = "feedbacks"

type feedbackRepository struct {
	db sqlx.ExtContext
}

func NewFeedbackRepository(db *sqlx.DB) repository.FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *domain.FeedBack) error {
	query := `INSERT INTO feedbacks (book_id, user_id, note, comment, created_on) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRowxContext(ctx, query, fb.BookID, fb.UserID, fb.Note, fb.Comment, now).Scan(&fb.ID); err != nil {
		return mapError(err)
	}
	fb.CreatedOn = now
	return nil
}

func (r *feedbackRepository) ListNotesByBook(ctx context.Context, bookID int32) ([]float64, error) {
	var notes []float64
	if err := sqlx.SelectContext(ctx, r.db, &notes, `SELECT note FROM feedbacks WHERE book_id = $1`, bookID); err != nil {
		return nil, mapError(err)
	}
	return notes, nil
}

func (r *feedbackRepository) ListByBook(ctx context.Context, bookID int32, page domain.PageRequest) ([]domain.FeedBack, int64, error) {
	ds := dialect.From(tableFeedbacks).
		Select("id", "book_id", "user_id", "note", "comment", "created_on").
		Where(goqu.C("book_id").Eq(bookID))
	var feedbacks []domain.FeedBack
	total, err := pageQuery(ctx, r.db, ds, orderBy(page.Sort, "", "created_on", "note"), page, &feedbacks)
	if err != nil {
		return nil, 0, err
	}
	return feedbacks, total, nil
}
