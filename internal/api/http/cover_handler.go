package http

import (
	"errors"
	"io"
	"net/http"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/service"
)

const coverFormField = "file"

// multipartOverhead is the allowance for multipart boundaries and part headers
// on top of the cover size limit.
const multipartOverhead = 64 << 10

// CoverHandler serves multipart cover uploads and cover downloads.
type CoverHandler struct {
	bookSvc  service.BookService
	maxBytes int64
}

func NewCoverHandler(bookSvc service.BookService, maxBytes int64) *CoverHandler {
	return &CoverHandler{bookSvc: bookSvc, maxBytes: maxBytes}
}

// UploadCover streams the "file" part of a multipart body to the book service.
func (h *CoverHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, domain.InvalidArgument("expected a multipart/form-data body"))
		return
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, r, domain.InvalidArgument("missing %q form field", coverFormField))
			return
		}
		if err != nil {
			writeError(w, r, uploadError(err))
			return
		}
		if part.FormName() != coverFormField {
			part.Close()
			continue
		}

		contentType := part.Header.Get("Content-Type")
		key, err := h.bookSvc.UploadCover(r.Context(), userID, bookID, part.FileName(), contentType, part)
		part.Close()
		if err != nil {
			writeError(w, r, uploadError(err))
			return
		}
		logger.Info("Cover uploaded", "book_id", bookID, "key", key)
		writeJSON(w, http.StatusAccepted, IDResponse{ID: bookID})
		return
	}
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.InvalidArgument("cover exceeds the maximum size")
	}
	return err
}

func (h *CoverHandler) OpenCover(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, contentType, err := h.bookSvc.OpenCover(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Failed to stream cover", "book_id", bookID, "error", err)
	}
}
