package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"
	"book-network-backend/internal/utils"
)

type lendingService struct {
	tx           repository.Transactor
	bookRepo     repository.BookRepository
	loanRepo     repository.LoanRepository
	feedbackRepo repository.FeedbackRepository
	retryOpts    []utils.RetryOption
}

// NewLendingService wires the lending workflow. A transaction aborted by the
// database is replayed up to retryAttempts times.
func NewLendingService(
	tx repository.Transactor,
	bookRepo repository.BookRepository,
	loanRepo repository.LoanRepository,
	feedbackRepo repository.FeedbackRepository,
	retryAttempts int,
	retryBaseDelay time.Duration,
) LendingService {
	return &lendingService{
		tx:           tx,
		bookRepo:     bookRepo,
		loanRepo:     loanRepo,
		feedbackRepo: feedbackRepo,
		retryOpts:    txRetryOptions(retryAttempts, retryBaseDelay),
	}
}

func txRetryOptions(attempts int, baseDelay time.Duration) []utils.RetryOption {
	if attempts < 1 {
		attempts = 1
	}
	return []utils.RetryOption{
		utils.WithMaxAttempts(attempts),
		utils.WithBaseDelay(baseDelay),
		utils.RetryOn(func(err error) bool { return errors.Is(err, repository.ErrTxConflict) }),
	}
}

// inTx runs fn in one unit of work, replaying it on transaction conflicts.
func inTx(ctx context.Context, tx repository.Transactor, opts []utils.RetryOption, name string, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	return utils.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return tx.WithinTx(ctx, fn)
	}, append([]utils.RetryOption{utils.WithName(name)}, opts...)...)
}

func (s *lendingService) Borrow(ctx context.Context, actorID, bookID int32) (int32, error) {
	logger.EnterMethod("lendingService.Borrow", "actorID", actorID, "bookID", bookID)

	var loanID int32
	err := inTx(ctx, s.tx, s.retryOpts, "Borrow", func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if !book.Borrowable() {
			return domain.OperationNotPermitted(domain.MsgNotBorrowable)
		}
		if book.OwnerID == actorID {
			return domain.OperationNotPermitted(domain.MsgOwnBook)
		}

		open, err := uow.Loans().ExistsOpenLoan(ctx, bookID, actorID)
		if err != nil {
			return fmt.Errorf("check open loan: %w", err)
		}
		if open {
			return domain.OperationNotPermitted(domain.MsgAlreadyBorrowed)
		}

		loan := &domain.Loan{BookID: bookID, UserID: actorID}
		if err := uow.Loans().Create(ctx, loan); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.OperationNotPermitted(domain.MsgAlreadyBorrowed)
			}
			return fmt.Errorf("create loan: %w", err)
		}
		loanID = loan.ID
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("lendingService.Borrow", err, "actorID", actorID, "bookID", bookID)
		return 0, err
	}

	logger.Info("Book borrowed", "bookID", bookID, "borrowerID", actorID, "loanID", loanID)
	logger.ExitMethod("lendingService.Borrow", "loanID", loanID)
	return loanID, nil
}

func (s *lendingService) Return(ctx context.Context, actorID, bookID int32) (int32, error) {
	logger.EnterMethod("lendingService.Return", "actorID", actorID, "bookID", bookID)

	var loanID int32
	err := inTx(ctx, s.tx, s.retryOpts, "Return", func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		// Returning is refused while the book is not borrowable, same as borrowing.
		if !book.Borrowable() {
			return domain.OperationNotPermitted(domain.MsgNotBorrowable)
		}
		if book.OwnerID == actorID {
			return domain.OperationNotPermitted(domain.MsgReturnOwnBook)
		}

		loan, err := uow.Loans().FindOpenByBookAndBorrower(ctx, bookID, actorID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.OperationNotPermitted(domain.MsgNotBorrowed)
			}
			return fmt.Errorf("find open loan: %w", err)
		}

		loan.Returned = true
		if err := uow.Loans().Update(ctx, loan); err != nil {
			return fmt.Errorf("mark loan returned: %w", err)
		}
		loanID = loan.ID
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("lendingService.Return", err, "actorID", actorID, "bookID", bookID)
		return 0, err
	}

	logger.Info("Book returned", "bookID", bookID, "borrowerID", actorID, "loanID", loanID)
	logger.ExitMethod("lendingService.Return", "loanID", loanID)
	return loanID, nil
}

func (s *lendingService) ApproveReturn(ctx context.Context, actorID, bookID int32) (int32, error) {
	logger.EnterMethod("lendingService.ApproveReturn", "actorID", actorID, "bookID", bookID)

	var loanID int32
	err := inTx(ctx, s.tx, s.retryOpts, "ApproveReturn", func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if !book.Borrowable() {
			return domain.OperationNotPermitted(domain.MsgNotBorrowable)
		}
		if book.OwnerID != actorID {
			return domain.OperationNotPermitted(domain.MsgNotOwnerApproval)
		}

		loan, err := uow.Loans().FindReturnedUnapprovedByBookAndOwner(ctx, bookID, actorID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.OperationNotPermitted(domain.MsgNotReturned)
			}
			return fmt.Errorf("find returned loan: %w", err)
		}

		loan.ReturnApproved = true
		if err := uow.Loans().Update(ctx, loan); err != nil {
			return fmt.Errorf("approve loan return: %w", err)
		}
		loanID = loan.ID
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("lendingService.ApproveReturn", err, "actorID", actorID, "bookID", bookID)
		return 0, err
	}

	logger.Info("Book return approved", "bookID", bookID, "ownerID", actorID, "loanID", loanID)
	logger.ExitMethod("lendingService.ApproveReturn", "loanID", loanID)
	return loanID, nil
}

func (s *lendingService) ListBorrowedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.LoanView], error) {
	loans, total, err := s.loanRepo.ListBorrowedByUser(ctx, actorID, page)
	if err != nil {
		return nil, fmt.Errorf("list borrowed books: %w", err)
	}
	return s.loanViews(ctx, loans, page, total)
}

func (s *lendingService) ListReturnedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.LoanView], error) {
	loans, total, err := s.loanRepo.ListOnOwnedBooks(ctx, actorID, page)
	if err != nil {
		return nil, fmt.Errorf("list returned books: %w", err)
	}
	return s.loanViews(ctx, loans, page, total)
}

// loanViews resolves the book and rating of each loan. Books appearing in several
// loans of the page are loaded once.
func (s *lendingService) loanViews(ctx context.Context, loans []domain.Loan, page domain.PageRequest, total int64) (*domain.Page[domain.LoanView], error) {
	type resolved struct {
		book domain.Book
		rate float64
	}
	cache := make(map[int32]resolved)

	views := make([]domain.LoanView, 0, len(loans))
	for _, loan := range loans {
		r, ok := cache[loan.BookID]
		if !ok {
			book, err := s.bookRepo.GetByID(ctx, loan.BookID)
			if err != nil {
				return nil, fmt.Errorf("load book %d: %w", loan.BookID, err)
			}
			rate, err := bookRate(ctx, s.feedbackRepo, loan.BookID)
			if err != nil {
				return nil, err
			}
			r = resolved{book: *book, rate: rate}
			cache[loan.BookID] = r
		}
		views = append(views, domain.LoanView{Loan: loan, Book: r.book, Rate: r.rate})
	}

	p := domain.NewPage(views, page, total)
	return &p, nil
}

// bookRate computes the current rating of a book from its feedback.
func bookRate(ctx context.Context, feedbackRepo repository.FeedbackRepository, bookID int32) (float64, error) {
	notes, err := feedbackRepo.ListNotesByBook(ctx, bookID)
	if err != nil {
		return 0, fmt.Errorf("load notes of book %d: %w", bookID, err)
	}
	return domain.AverageRating(notes), nil
}
