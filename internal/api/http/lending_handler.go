package http

import (
	"net/http"

	"book-network-backend/internal/service"
)

type LendingHandler struct {
	lendingSvc service.LendingService
}

func NewLendingHandler(lendingSvc service.LendingService) *LendingHandler {
	return &LendingHandler{lendingSvc: lendingSvc}
}

func (h *LendingHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.lendingSvc.Borrow)
}

func (h *LendingHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.lendingSvc.Return)
}

func (h *LendingHandler) ApproveReturn(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.lendingSvc.ApproveReturn)
}

// act writes the id of the loan touched by fn.
func (h *LendingHandler) act(w http.ResponseWriter, r *http.Request, fn bookAction) {
	loanID, err := runBookAction(r, fn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: loanID})
}

func (h *LendingHandler) ListBorrowedBooks(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.lendingSvc.ListBorrowedBooks(r.Context(), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res, toBorrowedBookResponse))
}

func (h *LendingHandler) ListReturnedBooks(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.lendingSvc.ListReturnedBooks(r.Context(), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(res, toBorrowedBookResponse))
}
