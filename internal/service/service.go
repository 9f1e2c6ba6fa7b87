package service

import (
	"context"
	"io"
	"time"

	"book-network-backend/internal/domain"
)

// SaveBookRequest carries the editable fields of a book. A non zero ID updates
// an existing book owned by the actor.
type SaveBookRequest struct {
	ID         int32
	Title      string
	AuthorName string
	ISBN       string
	Synopsis   string
	Shareable  bool
}

type BookService interface {
	SaveBook(ctx context.Context, actorID int32, req SaveBookRequest) (int32, error)
	GetBook(ctx context.Context, bookID int32) (*domain.BookView, error)
	ListDisplayableBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error)
	ListOwnedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error)
	ToggleShareable(ctx context.Context, actorID, bookID int32) (int32, error)
	ToggleArchived(ctx context.Context, actorID, bookID int32) (int32, error)
	UploadCover(ctx context.Context, actorID, bookID int32, filename, contentType string, r io.Reader) (string, error)
	OpenCover(ctx context.Context, bookID int32) (io.ReadCloser, string, error)
}

type LendingService interface {
	Borrow(ctx context.Context, actorID, bookID int32) (int32, error)
	Return(ctx context.Context, actorID, bookID int32) (int32, error)
	ApproveReturn(ctx context.Context, actorID, bookID int32) (int32, error)
	ListBorrowedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.LoanView], error)
	ListReturnedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.LoanView], error)
}

type FeedbackService interface {
	SaveFeedback(ctx context.Context, actorID, bookID int32, note float64, comment string) (int32, error)
	ListFeedbackByBook(ctx context.Context, actorID, bookID int32, page domain.PageRequest) (*domain.Page[domain.FeedBackView], error)
}

type RegisterRequest struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	DateOfBirth *time.Time
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	ActivateAccount(ctx context.Context, token string) error
	Authenticate(ctx context.Context, email, password string) (string, error)
	PurgeExpiredTokens(ctx context.Context, retention time.Duration) (int64, error)
}

type EmailService interface {
	SendActivationEmail(ctx context.Context, to, fullName, code, activationURL string) error
}
