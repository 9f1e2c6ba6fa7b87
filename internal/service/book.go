package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"
	"book-network-backend/internal/storage"
	"book-network-backend/internal/utils"
)

type bookService struct {
	tx           repository.Transactor
	bookRepo     repository.BookRepository
	userRepo     repository.UserRepository
	feedbackRepo repository.FeedbackRepository
	covers       storage.CoverStorage
	coverCfg     storage.Config
	retryOpts    []utils.RetryOption
}

func NewBookService(
	tx repository.Transactor,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	feedbackRepo repository.FeedbackRepository,
	covers storage.CoverStorage,
	coverCfg storage.Config,
	retryAttempts int,
	retryBaseDelay time.Duration,
) BookService {
	return &bookService{
		tx:           tx,
		bookRepo:     bookRepo,
		userRepo:     userRepo,
		feedbackRepo: feedbackRepo,
		covers:       covers,
		coverCfg:     coverCfg,
		retryOpts:    txRetryOptions(retryAttempts, retryBaseDelay),
	}
}

func validateBook(req SaveBookRequest) error {
	var missing []string
	if strings.TrimSpace(req.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(req.AuthorName) == "" {
		missing = append(missing, "author name")
	}
	if strings.TrimSpace(req.ISBN) == "" {
		missing = append(missing, "isbn")
	}
	if len(missing) > 0 {
		return domain.InvalidArgument("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *bookService) SaveBook(ctx context.Context, actorID int32, req SaveBookRequest) (int32, error) {
	logger.EnterMethod("bookService.SaveBook", "actorID", actorID, "bookID", req.ID)

	if err := validateBook(req); err != nil {
		logger.ExitMethodWithError("bookService.SaveBook", err)
		return 0, err
	}

	if req.ID == 0 {
		book := &domain.Book{
			OwnerID:    actorID,
			Title:      strings.TrimSpace(req.Title),
			AuthorName: strings.TrimSpace(req.AuthorName),
			ISBN:       strings.TrimSpace(req.ISBN),
			Synopsis:   req.Synopsis,
			Shareable:  req.Shareable,
			Archived:   false,
		}
		if err := s.bookRepo.Create(ctx, book); err != nil {
			logger.ExitMethodWithError("bookService.SaveBook", err)
			return 0, fmt.Errorf("create book: %w", err)
		}
		logger.Info("Book submitted", "bookID", book.ID, "ownerID", actorID)
		logger.ExitMethod("bookService.SaveBook", "bookID", book.ID)
		return book.ID, nil
	}

	err := inTx(ctx, s.tx, s.retryOpts, "SaveBook", func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if book.OwnerID != actorID {
			return domain.PermissionDenied("cannot update another user's book")
		}
		book.Title = strings.TrimSpace(req.Title)
		book.AuthorName = strings.TrimSpace(req.AuthorName)
		book.ISBN = strings.TrimSpace(req.ISBN)
		book.Synopsis = req.Synopsis
		book.Shareable = req.Shareable
		return uow.Books().Update(ctx, book)
	})
	if err != nil {
		logger.ExitMethodWithError("bookService.SaveBook", err)
		return 0, err
	}
	logger.ExitMethod("bookService.SaveBook", "bookID", req.ID)
	return req.ID, nil
}

func (s *bookService) GetBook(ctx context.Context, bookID int32) (*domain.BookView, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	owners := map[int32]string{}
	view, err := s.view(ctx, *book, owners)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *bookService) ListDisplayableBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error) {
	books, total, err := s.bookRepo.ListDisplayable(ctx, actorID, page)
	if err != nil {
		return nil, fmt.Errorf("list displayable books: %w", err)
	}
	return s.pageOf(ctx, books, page, total)
}

func (s *bookService) ListOwnedBooks(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error) {
	books, total, err := s.bookRepo.ListByOwner(ctx, actorID, page)
	if err != nil {
		return nil, fmt.Errorf("list owned books: %w", err)
	}
	return s.pageOf(ctx, books, page, total)
}

func (s *bookService) pageOf(ctx context.Context, books []domain.Book, page domain.PageRequest, total int64) (*domain.Page[domain.BookView], error) {
	owners := map[int32]string{}
	views := make([]domain.BookView, 0, len(books))
	for _, b := range books {
		v, err := s.view(ctx, b, owners)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	p := domain.NewPage(views, page, total)
	return &p, nil
}

// view derives the owner name and rating of a book. owners caches names across a page.
func (s *bookService) view(ctx context.Context, book domain.Book, owners map[int32]string) (domain.BookView, error) {
	name, ok := owners[book.OwnerID]
	if !ok {
		owner, err := s.userRepo.GetByID(ctx, book.OwnerID)
		if err != nil {
			return domain.BookView{}, fmt.Errorf("load owner of book %d: %w", book.ID, err)
		}
		name = owner.FullName()
		owners[book.OwnerID] = name
	}
	rate, err := bookRate(ctx, s.feedbackRepo, book.ID)
	if err != nil {
		return domain.BookView{}, err
	}
	return domain.BookView{Book: book, OwnerName: name, Rate: rate}, nil
}

func (s *bookService) ToggleShareable(ctx context.Context, actorID, bookID int32) (int32, error) {
	return s.toggle(ctx, "ToggleShareable", actorID, bookID, func(b *domain.Book) {
		b.Shareable = !b.Shareable
	})
}

func (s *bookService) ToggleArchived(ctx context.Context, actorID, bookID int32) (int32, error) {
	return s.toggle(ctx, "ToggleArchived", actorID, bookID, func(b *domain.Book) {
		b.Archived = !b.Archived
	})
}

func (s *bookService) toggle(ctx context.Context, name string, actorID, bookID int32, flip func(*domain.Book)) (int32, error) {
	method := "bookService." + name
	logger.EnterMethod(method, "actorID", actorID, "bookID", bookID)

	err := inTx(ctx, s.tx, s.retryOpts, name, func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if book.OwnerID != actorID {
			return domain.PermissionDenied(domain.MsgForeignBookFlag)
		}
		flip(book)
		if err := uow.Books().Update(ctx, book); err != nil {
			return fmt.Errorf("update book flags: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "bookID", bookID)
		return 0, err
	}
	logger.ExitMethod(method, "bookID", bookID)
	return bookID, nil
}

// UploadCover stores a new cover file and points the book at it. The previous
// file is removed once the book row references the new one.
func (s *bookService) UploadCover(ctx context.Context, actorID, bookID int32, filename, contentType string, r io.Reader) (string, error) {
	logger.EnterMethod("bookService.UploadCover", "actorID", actorID, "bookID", bookID, "contentType", contentType)

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		logger.ExitMethodWithError("bookService.UploadCover", err)
		return "", err
	}
	if book.OwnerID != actorID {
		err := domain.PermissionDenied("cannot change the cover of another user's book")
		logger.ExitMethodWithError("bookService.UploadCover", err)
		return "", err
	}
	if !s.coverCfg.Allows(contentType) {
		err := domain.InvalidArgument("unsupported cover content type %q", contentType)
		logger.ExitMethodWithError("bookService.UploadCover", err)
		return "", err
	}

	key := storage.NewCoverKey(bookID, filename, contentType)
	src := r
	if s.coverCfg.MaxBytes > 0 {
		src = io.LimitReader(r, s.coverCfg.MaxBytes+1)
	}
	n, err := s.covers.Save(ctx, key, src)
	if err != nil {
		logger.ExitMethodWithError("bookService.UploadCover", err)
		return "", fmt.Errorf("store cover: %w", err)
	}
	if s.coverCfg.MaxBytes > 0 && n > s.coverCfg.MaxBytes {
		s.discardCover(ctx, key)
		err := domain.InvalidArgument("cover exceeds the maximum size of %d bytes", s.coverCfg.MaxBytes)
		logger.ExitMethodWithError("bookService.UploadCover", err)
		return "", err
	}

	var previous string
	err = inTx(ctx, s.tx, s.retryOpts, "UploadCover", func(ctx context.Context, uow repository.UnitOfWork) error {
		book, err := uow.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if book.OwnerID != actorID {
			return domain.PermissionDenied("cannot change the cover of another user's book")
		}
		previous = book.Cover
		book.Cover = key
		return uow.Books().Update(ctx, book)
	})
	if err != nil {
		s.discardCover(ctx, key)
		logger.ExitMethodWithError("bookService.UploadCover", err)
		return "", err
	}

	if previous != "" && previous != key {
		s.discardCover(ctx, previous)
	}
	logger.ExitMethod("bookService.UploadCover", "key", key, "bytes", n)
	return key, nil
}

func (s *bookService) discardCover(ctx context.Context, key string) {
	if err := s.covers.Delete(ctx, key); err != nil {
		logger.Warn("Failed to delete cover file", "key", key, "error", err)
	}
}

func (s *bookService) OpenCover(ctx context.Context, bookID int32) (io.ReadCloser, string, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, "", err
	}
	if book.Cover == "" {
		return nil, "", domain.NotFound("book %d has no cover", bookID)
	}
	rc, err := s.covers.Open(ctx, book.Cover)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", domain.NotFound("cover of book %d is missing", bookID)
		}
		return nil, "", fmt.Errorf("open cover: %w", err)
	}
	return rc, storage.ContentTypeFor(book.Cover), nil
}
