package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxJSONBody = 1 << 20

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps an error kind to its HTTP status. Errors without a kind are
// infrastructure failures.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindOperationNotPermitted:
		return http.StatusConflict
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	body := errorResponse{Kind: string(kind), Message: err.Error()}
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		body = errorResponse{Kind: "INTERNAL", Message: "internal server error"}
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return domain.InvalidArgument("failed to read request body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.InvalidArgument("malformed request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.InvalidArgument("invalid %s: %q", name, raw)
	}
	return int32(id), nil
}

// pageRequest reads the page and size query parameters. Absent values fall back
// to the first page of the default size.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	var page, size int64
	var err error
	if v := q.Get("page"); v != "" {
		if page, err = strconv.ParseInt(v, 10, 32); err != nil || page < 0 {
			return domain.PageRequest{}, domain.InvalidArgument("invalid page: %q", v)
		}
	}
	if v := q.Get("size"); v != "" {
		if size, err = strconv.ParseInt(v, 10, 32); err != nil || size <= 0 {
			return domain.PageRequest{}, domain.InvalidArgument("invalid size: %q", v)
		}
	}
	sort, err := sortParam(q.Get("sort"))
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.NewPageRequest(int32(page), int32(size), sort), nil
}

// sortColumns maps the sortable response fields to their columns. Each list
// route orders by the subset its repository accepts and falls back to
// created_on otherwise.
var sortColumns = map[string]string{
	"createdDate":      "created_on",
	"lastModifiedDate": "updated_on",
	"title":            "title",
	"authorName":       "author_name",
	"note":             "note",
}

// sortParam parses "field" or "field,asc|desc". An empty value keeps the default order.
func sortParam(v string) (domain.Sort, error) {
	if v == "" {
		return domain.Sort{}, nil
	}
	field, dir, _ := strings.Cut(v, ",")
	col, ok := sortColumns[field]
	if !ok {
		return domain.Sort{}, domain.InvalidArgument("invalid sort field: %q", field)
	}
	switch strings.ToLower(dir) {
	case "", "desc":
		return domain.Sort{Field: col, Direction: domain.SortDesc}, nil
	case "asc":
		return domain.Sort{Field: col, Direction: domain.SortAsc}, nil
	default:
		return domain.Sort{}, domain.InvalidArgument("invalid sort direction: %q", dir)
	}
}
