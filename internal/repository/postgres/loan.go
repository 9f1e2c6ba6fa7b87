package postgres

import (
	"context"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

const tableLoans = "book_transaction_history"

var loanColumns = []any{
	goqu.T(tableLoans).Col("id"),
	goqu.T(tableLoans).Col("book_id"),
	goqu.T(tableLoans).Col("user_id"),
	goqu.T(tableLoans).Col("returned"),
	goqu.T(tableLoans).Col("return_approved"),
	goqu.T(tableLoans).Col("created_on"),
	goqu.T(tableLoans).Col("updated_on"),
}

type loanRepository struct {
	db sqlx.ExtContext
}

func NewLoanRepository(db *sqlx.DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	query := `INSERT INTO book_transaction_history (book_id, user_id, returned, return_approved, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`
	now := time.Now()
	logger.DatabaseCall("insert", query, "book_id", l.BookID, "user_id", l.UserID)
	if err := r.db.QueryRowxContext(ctx, query, l.BookID, l.UserID, l.Returned, l.ReturnApproved, now).Scan(&l.ID); err != nil {
		return mapError(err)
	}
	l.CreatedOn, l.UpdatedOn = now, now
	return nil
}

func (r *loanRepository) Update(ctx context.Context, l *domain.Loan) error {
	query := `UPDATE book_transaction_history SET returned=$1, return_approved=$2, updated_on=$3 WHERE id=$4`
	l.UpdatedOn = time.Now()
	res, err := r.db.ExecContext(ctx, query, l.Returned, l.ReturnApproved, l.UpdatedOn, l.ID)
	if err != nil {
		return mapError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("update", rows, nil, "loan_id", l.ID)
	if rows == 0 {
		return domain.NotFound("no loan found with the ID: %d", l.ID)
	}
	return nil
}

func (r *loanRepository) ExistsOpenLoan(ctx context.Context, bookID, borrowerID int32) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM book_transaction_history WHERE book_id = $1 AND user_id = $2 AND returned = false)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, bookID, borrowerID); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *loanRepository) FindOpenByBookAndBorrower(ctx context.Context, bookID, borrowerID int32) (*domain.Loan, error) {
	query := `SELECT id, book_id, user_id, returned, return_approved, created_on, updated_on
	          FROM book_transaction_history
	          WHERE book_id = $1 AND user_id = $2 AND returned = false`
	l := &domain.Loan{}
	if err := sqlx.GetContext(ctx, r.db, l, query, bookID, borrowerID); err != nil {
		return nil, notFound(err, "no open loan for book %d and user %d", bookID, borrowerID)
	}
	return l, nil
}

func (r *loanRepository) FindReturnedUnapprovedByBookAndOwner(ctx context.Context, bookID, ownerID int32) (*domain.Loan, error) {
	query := `SELECT h.id, h.book_id, h.user_id, h.returned, h.return_approved, h.created_on, h.updated_on
	          FROM book_transaction_history h
	          JOIN books b ON b.id = h.book_id
	          WHERE h.book_id = $1 AND b.owner_id = $2 AND h.returned = true AND h.return_approved = false
	          ORDER BY h.updated_on ASC
	          LIMIT 1`
	l := &domain.Loan{}
	if err := sqlx.GetContext(ctx, r.db, l, query, bookID, ownerID); err != nil {
		return nil, notFound(err, "no returned loan awaiting approval for book %d", bookID)
	}
	return l, nil
}

func (r *loanRepository) ListBorrowedByUser(ctx context.Context, borrowerID int32, page domain.PageRequest) ([]domain.Loan, int64, error) {
	ds := dialect.From(tableLoans).
		Select(loanColumns...).
		Where(goqu.T(tableLoans).Col("user_id").Eq(borrowerID))
	var loans []domain.Loan
	total, err := pageQuery(ctx, r.db, ds, orderBy(page.Sort, tableLoans, "created_on", "updated_on"), page, &loans)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

func (r *loanRepository) ListOnOwnedBooks(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Loan, int64, error) {
	ds := dialect.From(tableLoans).
		Select(loanColumns...).
		Join(goqu.T(tableBooks), goqu.On(goqu.T(tableBooks).Col("id").Eq(goqu.T(tableLoans).Col("book_id")))).
		Where(goqu.T(tableBooks).Col("owner_id").Eq(ownerID))
	var loans []domain.Loan
	total, err := pageQuery(ctx, r.db, ds, orderBy(page.Sort, tableLoans, "created_on", "updated_on"), page, &loans)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}
