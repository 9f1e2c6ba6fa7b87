package repository

import (
	"context"
	"errors"
	"time"

	"book-network-backend/internal/domain"
)

var (
	// ErrDuplicate is returned when an insert violates a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
	// ErrTxConflict is returned when the database aborted a transaction because of
	// a serialization failure or deadlock. The whole unit of work may be retried.
	ErrTxConflict = errors.New("transaction conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	GetByToken(ctx context.Context, token string) (*domain.Token, error)
	Update(ctx context.Context, token *domain.Token) error
	// DeleteExpired removes tokens that were never validated and expired before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id int32) (*domain.Book, error)
	// GetByIDForUpdate loads the book and locks it until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Book, error)
	Update(ctx context.Context, book *domain.Book) error
	// ListDisplayable lists shareable, non archived books not owned by excludeOwnerID.
	ListDisplayable(ctx context.Context, excludeOwnerID int32, page domain.PageRequest) ([]domain.Book, int64, error)
	ListByOwner(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Book, int64, error)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	Update(ctx context.Context, loan *domain.Loan) error
	ExistsOpenLoan(ctx context.Context, bookID, borrowerID int32) (bool, error)
	FindOpenByBookAndBorrower(ctx context.Context, bookID, borrowerID int32) (*domain.Loan, error)
	FindReturnedUnapprovedByBookAndOwner(ctx context.Context, bookID, ownerID int32) (*domain.Loan, error)
	ListBorrowedByUser(ctx context.Context, borrowerID int32, page domain.PageRequest) ([]domain.Loan, int64, error)
	ListOnOwnedBooks(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Loan, int64, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.FeedBack) error
	ListNotesByBook(ctx context.Context, bookID int32) ([]float64, error)
	ListByBook(ctx context.Context, bookID int32, page domain.PageRequest) ([]domain.FeedBack, int64, error)
}

// UnitOfWork gives access to repositories bound to one transaction.
type UnitOfWork interface {
	Books() BookRepository
	Loans() LoanRepository
	Feedback() FeedbackRepository
}

// Transactor runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back on any error or panic.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// Registry bundles the repositories of one storage backend.
type Registry struct {
	Users    UserRepository
	Tokens   TokenRepository
	Books    BookRepository
	Loans    LoanRepository
	Feedback FeedbackRepository
	Tx       Transactor
}
