package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

type Sort struct {
	Field     string
	Direction SortDirection
}

// PageRequest is a zero based page selection.
type PageRequest struct {
	Page int32
	Size int32
	Sort Sort
}

// NewPageRequest clamps page and size into their valid ranges and sorts newest first
// unless a sort is given.
func NewPageRequest(page, size int32, sort ...Sort) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	s := Sort{Field: "created_on", Direction: SortDesc}
	if len(sort) > 0 && sort[0].Field != "" {
		s = sort[0]
		if s.Direction != SortAsc {
			s.Direction = SortDesc
		}
	}
	return PageRequest{Page: page, Size: size, Sort: s}
}

func (p PageRequest) Offset() int64 {
	return int64(p.Page) * int64(p.Size)
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int32 `json:"number"`
	Size          int32 `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int32 `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewPage builds the page metadata for content selected by req out of total elements.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	var pages int32
	if req.Size > 0 {
		pages = int32((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		First:         req.Page == 0,
		Last:          req.Page >= pages-1,
	}
}

// MapPage converts the content of a page while keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return Page[U]{
		Content:       out,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
