package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const dialectPostgres = "postgres"

var dialect = goqu.Dialect(dialectPostgres)

// Store aggregates the PostgreSQL repositories. Repositories embedded here run
// outside of any transaction; lending transitions go through WithinTx.
type Store struct {
	db *sqlx.DB
	repository.UserRepository
	repository.TokenRepository
	repository.BookRepository
	repository.LoanRepository
	repository.FeedbackRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:                 db,
		UserRepository:     NewUserRepository(db),
		TokenRepository:    NewTokenRepository(db),
		BookRepository:     NewBookRepository(db),
		LoanRepository:     NewLoanRepository(db),
		FeedbackRepository: NewFeedbackRepository(db),
	}
}

type unitOfWork struct {
	books    repository.BookRepository
	loans    repository.LoanRepository
	feedback repository.FeedbackRepository
}

func (u *unitOfWork) Books() repository.BookRepository        { return u.books }
func (u *unitOfWork) Loans() repository.LoanRepository        { return u.loans }
func (u *unitOfWork) Feedback() repository.FeedbackRepository { return u.feedback }

// WithinTx runs fn in a read committed transaction. Rows locked by fn stay locked
// until commit or rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("Failed to roll back transaction", "error", rbErr)
			}
		}
	}()

	uow := &unitOfWork{
		books:    &bookRepository{db: tx},
		loans:    &loanRepository{db: tx},
		feedback: &feedbackRepository{db: tx},
	}
	if err = fn(ctx, uow); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// mapError translates driver errors into repository sentinels. Anything it does
// not recognise is returned unchanged.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "unique_violation":
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	case "serialization_failure", "deadlock_detected":
		return fmt.Errorf("%w: %s", repository.ErrTxConflict, pqErr.Message)
	}
	return err
}

// notFound converts sql.ErrNoRows into a NOT_FOUND domain error.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(format, args...)
	}
	return mapError(err)
}

// pageQuery counts the rows selected by ds and scans the requested page into dest.
func pageQuery(ctx context.Context, db sqlx.ExtContext, ds *goqu.SelectDataset, order exp.OrderedExpression, page domain.PageRequest, dest any) (int64, error) {
	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	logger.DatabaseCall("count", countSQL)
	if err := sqlx.GetContext(ctx, db, &total, countSQL, countArgs...); err != nil {
		return 0, mapError(err)
	}

	selectSQL, args, err := ds.Order(order).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build select query: %w", err)
	}
	logger.DatabaseCall("select", selectSQL)
	if err := sqlx.SelectContext(ctx, db, dest, selectSQL, args...); err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// orderBy whitelists the sort field against allowed columns of table and falls
// back to created_on.
func orderBy(sort domain.Sort, table string, allowed ...string) exp.OrderedExpression {
	field := "created_on"
	for _, a := range allowed {
		if sort.Field == a {
			field = a
			break
		}
	}
	col := goqu.I(field)
	if table != "" {
		col = goqu.T(table).Col(field)
	}
	if sort.Direction == domain.SortAsc {
		return col.Asc()
	}
	return col.Desc()
}

func (s *Store) Registry() repository.Registry {
	return repository.Registry{
		Users:    s.UserRepository,
		Tokens:   s.TokenRepository,
		Books:    s.BookRepository,
		Loans:    s.LoanRepository,
		Feedback: s.FeedbackRepository,
		Tx:       s,
	}
}
