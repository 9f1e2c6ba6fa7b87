package postgres

import (
	"context"
	"fmt"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

const tableBooks = "books"

var bookColumns = []any{"id", "owner_id", "title", "author_name", "isbn", "synopsis", "cover", "archived", "shareable", "created_on", "updated_on"}

type bookRepository struct {
	db sqlx.ExtContext
}

func NewBookRepository(db *sqlx.DB) repository.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `INSERT INTO books (owner_id, title, author_name, isbn, synopsis, cover, archived, shareable, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`
	now := time.Now()
	logger.DatabaseCall("insert", query, "owner_id", b.OwnerID)
	err := r.db.QueryRowxContext(ctx, query, b.OwnerID, b.Title, b.AuthorName, b.ISBN, b.Synopsis, b.Cover, b.Archived, b.Shareable, now).Scan(&b.ID)
	if err != nil {
		return mapError(err)
	}
	b.CreatedOn, b.UpdatedOn = now, now
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int32) (*domain.Book, error) {
	b := &domain.Book{}
	query := `SELECT id, owner_id, title, author_name, isbn, COALESCE(synopsis, '') AS synopsis, COALESCE(cover, '') AS cover, archived, shareable, created_on, updated_on
	          FROM books WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, b, query, id); err != nil {
		return nil, notFound(err, "no book found with the ID: %d", id)
	}
	return b, nil
}

func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Book, error) {
	query, args, err := dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		ForUpdate(exp.Wait).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build locking query: %w", err)
	}
	logger.DatabaseCall("select_for_update", query, "book_id", id)
	b := &domain.Book{}
	if err := sqlx.GetContext(ctx, r.db, b, query, args...); err != nil {
		return nil, notFound(err, "no book found with the ID: %d", id)
	}
	return b, nil
}

func (r *bookRepository) Update(ctx context.Context, b *domain.Book) error {
	query := `UPDATE books SET title=$1, author_name=$2, isbn=$3, synopsis=$4, cover=$5, archived=$6, shareable=$7, updated_on=$8 WHERE id=$9`
	b.UpdatedOn = time.Now()
	res, err := r.db.ExecContext(ctx, query, b.Title, b.AuthorName, b.ISBN, b.Synopsis, b.Cover, b.Archived, b.Shareable, b.UpdatedOn, b.ID)
	if err != nil {
		logger.DatabaseResult("update", 0, err, "book_id", b.ID)
		return mapError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("update", rows, nil, "book_id", b.ID)
	if rows == 0 {
		return domain.NotFound("no book found with the ID: %d", b.ID)
	}
	return nil
}

func (r *bookRepository) ListDisplayable(ctx context.Context, excludeOwnerID int32, page domain.PageRequest) ([]domain.Book, int64, error) {
	ds := dialect.From(tableBooks).
		Select(bookColumns...).
		Where(
			goqu.C("archived").IsFalse(),
			goqu.C("shareable").IsTrue(),
			goqu.C("owner_id").Neq(excludeOwnerID),
		)
	var books []domain.Book
	total, err := pageQuery(ctx, r.db, ds, orderBy(page.Sort, "", "created_on", "title", "author_name"), page, &books)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) ListByOwner(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Book, int64, error) {
	ds := dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("owner_id").Eq(ownerID))
	var books []domain.Book
	total, err := pageQuery(ctx, r.db, ds, orderBy(page.Sort, "", "created_on", "title", "author_name"), page, &books)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}
