package http

import (
	"fmt"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/service"
	"book-network-backend/internal/utils"
)

type RegistrationRequest struct {
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
}

type AuthenticationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthenticationResponse struct {
	Token string `json:"token"`
}

type BookRequest struct {
	ID         int32  `json:"id,omitempty"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	ISBN       string `json:"isbn"`
	Synopsis   string `json:"synopsis"`
	Shareable  bool   `json:"shareable"`
}

type BookResponse struct {
	ID         int32   `json:"id"`
	Title      string  `json:"title"`
	AuthorName string  `json:"authorName"`
	ISBN       string  `json:"isbn"`
	Synopsis   string  `json:"synopsis"`
	Owner      string  `json:"owner"`
	Cover      string  `json:"cover,omitempty"`
	Rate       float64 `json:"rate"`
	Archived   bool    `json:"archived"`
	Shareable  bool    `json:"shareable"`
}

type BorrowedBookResponse struct {
	ID             int32   `json:"id"`
	LoanID         int32   `json:"loanId"`
	Title          string  `json:"title"`
	AuthorName     string  `json:"authorName"`
	ISBN           string  `json:"isbn"`
	Rate           float64 `json:"rate"`
	Returned       bool    `json:"returned"`
	ReturnApproved bool    `json:"returnApproved"`
}

type FeedbackRequest struct {
	Note    *float64 `json:"note"`
	Comment string   `json:"comment"`
	BookID  int32    `json:"bookId"`
}

type FeedbackResponse struct {
	Note        float64 `json:"note"`
	Comment     string  `json:"comment"`
	OwnFeedback bool    `json:"ownFeedback"`
}

type IDResponse struct {
	ID int32 `json:"id"`
}

type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	Number        int32 `json:"number"`
	Size          int32 `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int32 `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func toPageResponse[T, U any](p *domain.Page[T], fn func(T) U) PageResponse[U] {
	m := domain.MapPage(*p, fn)
	return PageResponse[U]{
		Content:       m.Content,
		Number:        m.Number,
		Size:          m.Size,
		TotalElements: m.TotalElements,
		TotalPages:    m.TotalPages,
		First:         m.First,
		Last:          m.Last,
	}
}

func (r RegistrationRequest) toService() (service.RegisterRequest, error) {
	dob, err := utils.ParseDate(r.DateOfBirth)
	if err != nil {
		return service.RegisterRequest{}, domain.InvalidArgument("invalid date of birth: %q", r.DateOfBirth)
	}
	return service.RegisterRequest{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Password:    r.Password,
		DateOfBirth: dob,
	}, nil
}

func (r BookRequest) toService() service.SaveBookRequest {
	return service.SaveBookRequest{
		ID:         r.ID,
		Title:      r.Title,
		AuthorName: r.AuthorName,
		ISBN:       r.ISBN,
		Synopsis:   r.Synopsis,
		Shareable:  r.Shareable,
	}
}

// coverURL is where the cover of a book is served, empty when it has none.
func coverURL(b domain.Book) string {
	if b.Cover == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/books/cover/%d", b.ID)
}

func toBookResponse(v domain.BookView) BookResponse {
	return BookResponse{
		ID:         v.ID,
		Title:      v.Title,
		AuthorName: v.AuthorName,
		ISBN:       v.ISBN,
		Synopsis:   v.Synopsis,
		Owner:      v.OwnerName,
		Cover:      coverURL(v.Book),
		Rate:       v.Rate,
		Archived:   v.Archived,
		Shareable:  v.Shareable,
	}
}

func toBorrowedBookResponse(v domain.LoanView) BorrowedBookResponse {
	return BorrowedBookResponse{
		ID:             v.Book.ID,
		LoanID:         v.ID,
		Title:          v.Book.Title,
		AuthorName:     v.Book.AuthorName,
		ISBN:           v.Book.ISBN,
		Rate:           v.Rate,
		Returned:       v.Returned,
		ReturnApproved: v.ReturnApproved,
	}
}

func toFeedbackResponse(v domain.FeedBackView) FeedbackResponse {
	return FeedbackResponse{Note: v.Note, Comment: v.Comment, OwnFeedback: v.OwnFeedback}
}
