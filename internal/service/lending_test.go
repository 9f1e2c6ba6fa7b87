package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/repository"
)

const (
	ownerID    = int32(1)
	borrowerID = int32(2)
	bookID     = int32(10)
)

type lendingFixture struct {
	books    *MockBookRepo
	loans    *MockLoanRepo
	feedback *MockFeedbackRepo
	tx       *mockTx
	svc      LendingService
}

func newLendingFixture() *lendingFixture {
	f := &lendingFixture{
		books:    new(MockBookRepo),
		loans:    new(MockLoanRepo),
		feedback: new(MockFeedbackRepo),
	}
	f.tx = &mockTx{books: f.books, loans: f.loans, feedback: f.feedback}
	f.svc = NewLendingService(f.tx, f.books, f.loans, f.feedback, 3, 0)
	return f
}

func sharedBook() *domain.Book {
	return &domain.Book{ID: bookID, OwnerID: ownerID, Title: "Dune", Shareable: true}
}

func assertRule(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOperationNotPermitted)
	assert.Equal(t, msg, err.Error())
}

func TestLendingService_Borrow(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("ExistsOpenLoan", ctx, bookID, borrowerID).Return(false, nil)
		f.loans.On("Create", ctx, mock.MatchedBy(func(l *domain.Loan) bool {
			return l.BookID == bookID && l.UserID == borrowerID && !l.Returned && !l.ReturnApproved
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Loan).ID = 77
		}).Return(nil)

		id, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assert.NoError(t, err)
		assert.Equal(t, int32(77), id)
		f.loans.AssertExpectations(t)
	})

	t.Run("BookNotFound", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(nil, domain.NotFound("no book found with the ID: %d", bookID))

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.loans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Archived", func(t *testing.T) {
		f := newLendingFixture()
		b := sharedBook()
		b.Archived = true
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(b, nil)

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgNotBorrowable)
	})

	t.Run("NotShareable", func(t *testing.T) {
		f := newLendingFixture()
		b := sharedBook()
		b.Shareable = false
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(b, nil)

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgNotBorrowable)
	})

	t.Run("OwnBook", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)

		_, err := f.svc.Borrow(ctx, ownerID, bookID)
		assertRule(t, err, domain.MsgOwnBook)
	})

	t.Run("AlreadyBorrowed", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("ExistsOpenLoan", ctx, bookID, borrowerID).Return(true, nil)

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgAlreadyBorrowed)
		f.loans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("UniqueViolationIsAlreadyBorrowed", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("ExistsOpenLoan", ctx, bookID, borrowerID).Return(false, nil)
		f.loans.On("Create", ctx, mock.Anything).Return(fmt.Errorf("%w: ux_loans_open", repository.ErrDuplicate))

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgAlreadyBorrowed)
	})

	t.Run("ConflictIsRetried", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("ExistsOpenLoan", ctx, bookID, borrowerID).Return(false, nil)
		f.loans.On("Create", ctx, mock.Anything).Return(repository.ErrTxConflict).Once()
		f.loans.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Loan).ID = 5
		}).Return(nil).Once()

		id, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assert.NoError(t, err)
		assert.Equal(t, int32(5), id)
		assert.Equal(t, 2, f.tx.attempts)
	})

	t.Run("ConflictGivesUp", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("ExistsOpenLoan", ctx, bookID, borrowerID).Return(false, nil)
		f.loans.On("Create", ctx, mock.Anything).Return(repository.ErrTxConflict)

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		assert.ErrorIs(t, err, repository.ErrTxConflict)
		assert.Equal(t, 3, f.tx.attempts)
	})

	t.Run("StoreFailureIsOpaque", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("ExistsOpenLoan", ctx, bookID, borrowerID).Return(false, errors.New("connection reset"))

		_, err := f.svc.Borrow(ctx, borrowerID, bookID)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorKind(""), domain.KindOf(err))
		assert.Equal(t, 1, f.tx.attempts)
	})
}

func TestLendingService_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newLendingFixture()
		loan := &domain.Loan{ID: 3, BookID: bookID, UserID: borrowerID}
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("FindOpenByBookAndBorrower", ctx, bookID, borrowerID).Return(loan, nil)
		f.loans.On("Update", ctx, mock.MatchedBy(func(l *domain.Loan) bool {
			return l.ID == 3 && l.Returned && !l.ReturnApproved
		})).Return(nil)

		id, err := f.svc.Return(ctx, borrowerID, bookID)
		assert.NoError(t, err)
		assert.Equal(t, int32(3), id)
	})

	t.Run("NotBorrowable", func(t *testing.T) {
		f := newLendingFixture()
		b := sharedBook()
		b.Archived = true
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(b, nil)

		_, err := f.svc.Return(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgNotBorrowable)
	})

	t.Run("OwnBook", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)

		_, err := f.svc.Return(ctx, ownerID, bookID)
		assertRule(t, err, domain.MsgReturnOwnBook)
	})

	t.Run("NotBorrowed", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("FindOpenByBookAndBorrower", ctx, bookID, borrowerID).Return(nil, domain.NotFound("no open loan"))

		_, err := f.svc.Return(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgNotBorrowed)
		f.loans.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestLendingService_ApproveReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newLendingFixture()
		loan := &domain.Loan{ID: 4, BookID: bookID, UserID: borrowerID, Returned: true}
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("FindReturnedUnapprovedByBookAndOwner", ctx, bookID, ownerID).Return(loan, nil)
		f.loans.On("Update", ctx, mock.MatchedBy(func(l *domain.Loan) bool {
			return l.ID == 4 && l.Returned && l.ReturnApproved
		})).Return(nil)

		id, err := f.svc.ApproveReturn(ctx, ownerID, bookID)
		assert.NoError(t, err)
		assert.Equal(t, int32(4), id)
	})

	t.Run("NotOwner", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)

		_, err := f.svc.ApproveReturn(ctx, borrowerID, bookID)
		assertRule(t, err, domain.MsgNotOwnerApproval)
	})

	t.Run("NotReturnedYet", func(t *testing.T) {
		f := newLendingFixture()
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(sharedBook(), nil)
		f.loans.On("FindReturnedUnapprovedByBookAndOwner", ctx, bookID, ownerID).Return(nil, domain.NotFound("none"))

		_, err := f.svc.ApproveReturn(ctx, ownerID, bookID)
		assertRule(t, err, domain.MsgNotReturned)
	})

	t.Run("NotBorrowable", func(t *testing.T) {
		f := newLendingFixture()
		b := sharedBook()
		b.Shareable = false
		f.books.On("GetByIDForUpdate", ctx, bookID).Return(b, nil)

		_, err := f.svc.ApproveReturn(ctx, ownerID, bookID)
		assertRule(t, err, domain.MsgNotBorrowable)
	})
}

func TestLendingService_ListBorrowedBooks(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture()
	page := domain.NewPageRequest(0, 10)

	loans := []domain.Loan{
		{ID: 1, BookID: bookID, UserID: borrowerID, Returned: true, ReturnApproved: true},
		{ID: 2, BookID: bookID, UserID: borrowerID},
	}
	f.loans.On("ListBorrowedByUser", ctx, borrowerID, page).Return(loans, int64(2), nil)
	f.books.On("GetByID", ctx, bookID).Return(sharedBook(), nil).Once()
	f.feedback.On("ListNotesByBook", ctx, bookID).Return([]float64{5, 5, 5, 4}, nil).Once()

	res, err := f.svc.ListBorrowedBooks(ctx, borrowerID, page)
	require.NoError(t, err)
	require.Len(t, res.Content, 2)
	assert.Equal(t, 4.8, res.Content[0].Rate)
	assert.Equal(t, "Dune", res.Content[1].Book.Title)
	assert.True(t, res.Content[0].ReturnApproved)
	assert.Equal(t, int64(2), res.TotalElements)
	assert.True(t, res.First)
	assert.True(t, res.Last)
	f.books.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestLendingService_ListReturnedBooks(t *testing.T) {
	ctx := context.Background()
	f := newLendingFixture()
	page := domain.NewPageRequest(1, 1)

	f.loans.On("ListOnOwnedBooks", ctx, ownerID, page).Return([]domain.Loan{{ID: 9, BookID: bookID, UserID: borrowerID, Returned: true}}, int64(2), nil)
	f.books.On("GetByID", ctx, bookID).Return(sharedBook(), nil)
	f.feedback.On("ListNotesByBook", ctx, bookID).Return([]float64{}, nil)

	res, err := f.svc.ListReturnedBooks(ctx, ownerID, page)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, 0.0, res.Content[0].Rate)
	assert.Equal(t, int32(2), res.TotalPages)
	assert.False(t, res.First)
	assert.True(t, res.Last)
}
