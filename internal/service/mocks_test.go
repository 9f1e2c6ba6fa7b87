package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/repository"
	"book-network-backend/internal/security"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockTokenRepo
type MockTokenRepo struct {
	mock.Mock
}

func (m *MockTokenRepo) Create(ctx context.Context, token *domain.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
func (m *MockTokenRepo) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}
func (m *MockTokenRepo) Update(ctx context.Context, token *domain.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
func (m *MockTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockBookRepo
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) GetByID(ctx context.Context, id int32) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) ListDisplayable(ctx context.Context, excludeOwnerID int32, page domain.PageRequest) ([]domain.Book, int64, error) {
	args := m.Called(ctx, excludeOwnerID, page)
	return args.Get(0).([]domain.Book), args.Get(1).(int64), args.Error(2)
}
func (m *MockBookRepo) ListByOwner(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Book, int64, error) {
	args := m.Called(ctx, ownerID, page)
	return args.Get(0).([]domain.Book), args.Get(1).(int64), args.Error(2)
}

// MockLoanRepo
type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockLoanRepo) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockLoanRepo) ExistsOpenLoan(ctx context.Context, bookID, borrowerID int32) (bool, error) {
	args := m.Called(ctx, bookID, borrowerID)
	return args.Bool(0), args.Error(1)
}
func (m *MockLoanRepo) FindOpenByBookAndBorrower(ctx context.Context, bookID, borrowerID int32) (*domain.Loan, error) {
	args := m.Called(ctx, bookID, borrowerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) FindReturnedUnapprovedByBookAndOwner(ctx context.Context, bookID, ownerID int32) (*domain.Loan, error) {
	args := m.Called(ctx, bookID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) ListBorrowedByUser(ctx context.Context, borrowerID int32, page domain.PageRequest) ([]domain.Loan, int64, error) {
	args := m.Called(ctx, borrowerID, page)
	return args.Get(0).([]domain.Loan), args.Get(1).(int64), args.Error(2)
}
func (m *MockLoanRepo) ListOnOwnedBooks(ctx context.Context, ownerID int32, page domain.PageRequest) ([]domain.Loan, int64, error) {
	args := m.Called(ctx, ownerID, page)
	return args.Get(0).([]domain.Loan), args.Get(1).(int64), args.Error(2)
}

// MockFeedbackRepo
type MockFeedbackRepo struct {
	mock.Mock
}

func (m *MockFeedbackRepo) Create(ctx context.Context, fb *domain.FeedBack) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}
func (m *MockFeedbackRepo) ListNotesByBook(ctx context.Context, bookID int32) ([]float64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).([]float64), args.Error(1)
}
func (m *MockFeedbackRepo) ListByBook(ctx context.Context, bookID int32, page domain.PageRequest) ([]domain.FeedBack, int64, error) {
	args := m.Called(ctx, bookID, page)
	return args.Get(0).([]domain.FeedBack), args.Get(1).(int64), args.Error(2)
}

// mockTx runs the unit of work directly against the mocked repositories and
// counts the attempts.
type mockTx struct {
	books    *MockBookRepo
	loans    *MockLoanRepo
	feedback *MockFeedbackRepo
	attempts int
}

func (t *mockTx) Books() repository.BookRepository        { return t.books }
func (t *mockTx) Loans() repository.LoanRepository        { return t.loans }
func (t *mockTx) Feedback() repository.FeedbackRepository { return t.feedback }

func (t *mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	t.attempts++
	return fn(ctx, t)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendActivationEmail(ctx context.Context, to, fullName, code, activationURL string) error {
	args := m.Called(ctx, to, fullName, code, activationURL)
	return args.Error(0)
}

// MockTokenManager
type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) GenerateAccessToken(userID int32, email, fullName string) (string, error) {
	args := m.Called(userID, email, fullName)
	return args.String(0), args.Error(1)
}
func (m *MockTokenManager) ValidateToken(tokenString string) (*security.UserClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.UserClaims), args.Error(1)
}

type fixedCode string

func (c fixedCode) Generate() (string, error) { return string(c), nil }
