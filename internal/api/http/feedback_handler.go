package http

import (
	"net/http"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/service"
)

type FeedbackHandler struct {
	feedbackSvc service.FeedbackService
}

func NewFeedbackHandler(feedbackSvc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

func (h *FeedbackHandler) SaveFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body FeedbackRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Note == nil {
		writeError(w, r, domain.InvalidArgument("note is required"))
		return
	}
	if body.BookID <= 0 {
		writeError(w, r, domain.InvalidArgument("bookId is required"))
		return
	}
	id, err := h.feedbackSvc.SaveFeedback(r.Context(), userID, body.BookID, *body.Note, body.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *FeedbackHandler) ListFeedbackByBook(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	bookID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.feedbackSvc.ListFeedbackByBook(r.Context(), userID, bookID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res, toFeedbackResponse))
}
