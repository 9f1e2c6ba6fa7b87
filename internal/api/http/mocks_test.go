package http

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/service"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) ActivateAccount(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) PurgeExpiredTokens(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type MockBookService struct{ mock.Mock }

func (m *MockBookService) SaveBook(ctx context.Context, actorID int32, req service.SaveBookRequest) (int32, error) {
	args := m.Called(ctx, actorID, req)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockBookService) GetBook(ctx context.Context, bookID int32) (*domain.BookView, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookView), args.Error(1)
}

func (m *MockBookService) ListDisplayableBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error) {
	args := m.Called(ctx, actorID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.BookView]), args.Error(1)
}

func (m *MockBookService) ListOwnedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error) {
	args := m.Called(ctx, actorID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.BookView]), args.Error(1)
}

func (m *MockBookService) ToggleShareable(ctx context.Context, actorID, bookID int32) (int32, error) {
	args := m.Called(ctx, actorID, bookID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockBookService) ToggleArchived(ctx context.Context, actorID, bookID int32) (int32, error) {
	args := m.Called(ctx, actorID, bookID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockBookService) UploadCover(ctx context.Context, actorID, bookID int32, filename, contentType string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, actorID, bookID, filename, contentType, string(data))
	return args.String(0), args.Error(1)
}

func (m *MockBookService) OpenCover(ctx context.Context, bookID int32) (io.ReadCloser, string, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

type MockLendingService struct{ mock.Mock }

func (m *MockLendingService) Borrow(ctx context.Context, actorID, bookID int32) (int32, error) {
	args := m.Called(ctx, actorID, bookID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockLendingService) Return(ctx context.Context, actorID, bookID int32) (int32, error) {
	args := m.Called(ctx, actorID, bookID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockLendingService) ApproveReturn(ctx context.Context, actorID, bookID int32) (int32, error) {
	args := m.Called(ctx, actorID, bookID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockLendingService) ListBorrowedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.LoanView], error) {
	args := m.Called(ctx, actorID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.LoanView]), args.Error(1)
}

func (m *MockLendingService) ListReturnedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.LoanView], error) {
	args := m.Called(ctx, actorID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.LoanView]), args.Error(1)
}

type MockFeedbackService struct{ mock.Mock }

func (m *MockFeedbackService) SaveFeedback(ctx context.Context, actorID, bookID int32, note float64, comment string) (int32, error) {
	args := m.Called(ctx, actorID, bookID, note, comment)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockFeedbackService) ListFeedbackByBook(ctx context.Context, actorID, bookID int32, page domain.PageRequest) (*domain.Page[domain.FeedBackView], error) {
	args := m.Called(ctx, actorID, bookID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.FeedBackView]), args.Error(1)
}
