package http

import (
	"context"
	"net/http"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/service"
)

type BookHandler struct {
	bookSvc service.BookService
}

func NewBookHandler(bookSvc service.BookService) *BookHandler {
	return &BookHandler{bookSvc: bookSvc}
}

func (h *BookHandler) SaveBook(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body BookRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.bookSvc.SaveBook(r.Context(), userID, body.toService())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.bookSvc.GetBook(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(*view))
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	h.listBooks(w, r, h.bookSvc.ListDisplayableBooks)
}

func (h *BookHandler) ListOwnedBooks(w http.ResponseWriter, r *http.Request) {
	h.listBooks(w, r, h.bookSvc.ListOwnedBooks)
}

type bookLister func(ctx context.Context, actorID int32, page domain.PageRequest) (*domain.Page[domain.BookView], error)

// bookAction is an actor driven operation on one book returning the affected id.
type bookAction func(ctx context.Context, actorID, bookID int32) (int32, error)

func runBookAction(r *http.Request, fn bookAction) (int32, error) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		return 0, err
	}
	bookID, err := pathID(r, "id")
	if err != nil {
		return 0, err
	}
	return fn(r.Context(), userID, bookID)
}

func (h *BookHandler) listBooks(w http.ResponseWriter, r *http.Request, list bookLister) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := list(r.Context(), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res, toBookResponse))
}

func (h *BookHandler) ToggleShareable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.bookSvc.ToggleShareable)
}

func (h *BookHandler) ToggleArchived(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.bookSvc.ToggleArchived)
}

func (h *BookHandler) toggle(w http.ResponseWriter, r *http.Request, fn bookAction) {
	id, err := runBookAction(r, fn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}
