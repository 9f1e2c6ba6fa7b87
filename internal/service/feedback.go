package service

import (
	"context"
	"fmt"
	"math"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"
)

type feedbackService struct {
	bookRepo     repository.BookRepository
	feedbackRepo repository.FeedbackRepository
}

func NewFeedbackService(bookRepo repository.BookRepository, feedbackRepo repository.FeedbackRepository) FeedbackService {
	return &feedbackService{
		bookRepo:     bookRepo,
		feedbackRepo: feedbackRepo,
	}
}

func (s *feedbackService) SaveFeedback(ctx context.Context, actorID, bookID int32, note float64, comment string) (int32, error) {
	logger.EnterMethod("feedbackService.SaveFeedback", "actorID", actorID, "bookID", bookID, "note", note)

	if math.IsNaN(note) || note < domain.MinFeedbackNote || note > domain.MaxFeedbackNote {
		err := domain.InvalidArgument("note must be between %.0f and %.0f", domain.MinFeedbackNote, domain.MaxFeedbackNote)
		logger.ExitMethodWithError("feedbackService.SaveFeedback", err)
		return 0, err
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		logger.ExitMethodWithError("feedbackService.SaveFeedback", err)
		return 0, err
	}
	if !book.Borrowable() {
		err := domain.OperationNotPermitted(domain.MsgNotBorrowable)
		logger.ExitMethodWithError("feedbackService.SaveFeedback", err)
		return 0, err
	}
	if book.OwnerID == actorID {
		err := domain.OperationNotPermitted(domain.MsgOwnBookFeedback)
		logger.ExitMethodWithError("feedbackService.SaveFeedback", err)
		return 0, err
	}

	fb := &domain.FeedBack{BookID: bookID, UserID: actorID, Note: note, Comment: comment}
	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		logger.ExitMethodWithError("feedbackService.SaveFeedback", err)
		return 0, fmt.Errorf("create feedback: %w", err)
	}

	logger.ExitMethod("feedbackService.SaveFeedback", "feedbackID", fb.ID)
	return fb.ID, nil
}

func (s *feedbackService) ListFeedbackByBook(ctx context.Context, actorID, bookID int32, page domain.PageRequest) (*domain.Page[domain.FeedBackView], error) {
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	items, total, err := s.feedbackRepo.ListByBook(ctx, bookID, page)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	views := make([]domain.FeedBackView, 0, len(items))
	for _, fb := range items {
		views = append(views, domain.FeedBackView{FeedBack: fb, OwnFeedback: fb.UserID == actorID})
	}
	p := domain.NewPage(views, page, total)
	return &p, nil
}
