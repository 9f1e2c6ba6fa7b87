package http

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/security"
	"book-network-backend/internal/service"
)

const testSecret = "a-test-secret-that-is-at-least-32-chars"

type routerFixture struct {
	auth     *MockAuthService
	books    *MockBookService
	lending  *MockLendingService
	feedback *MockFeedbackService
	router   http.Handler
	token    string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	tm := security.NewTokenManager(testSecret, time.Hour)
	token, err := tm.GenerateAccessToken(2, "bob@example.com", "Bob Reader")
	require.NoError(t, err)

	f := &routerFixture{
		auth:     new(MockAuthService),
		books:    new(MockBookService),
		lending:  new(MockLendingService),
		feedback: new(MockFeedbackService),
		token:    token,
	}
	f.router = NewRouter(Services{Auth: f.auth, Books: f.books, Lending: f.lending, Feedback: f.feedback}, tm, 32)
	return f
}

func (f *routerFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestAuthMiddleware(t *testing.T) {
	f := newRouterFixture(t)

	t.Run("PublicRoute", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/books", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body errorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "UNAUTHENTICATED", body.Kind)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		req.Header.Set("Authorization", "Basic Ym9iOnB3")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ForeignSignature", func(t *testing.T) {
		other := security.NewTokenManager("another-secret-that-is-at-least-32-chars", time.Hour)
		token, err := other.GenerateAccessToken(2, "bob@example.com", "Bob")
		require.NoError(t, err)

		rec := f.do(http.MethodGet, "/api/v1/books", "", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		f.books.AssertNotCalled(t, "ListDisplayableBooks", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/v1/nowhere", "", f.token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.NotFound("no book"), http.StatusNotFound},
		{domain.PermissionDenied("nope"), http.StatusForbidden},
		{domain.OperationNotPermitted(domain.MsgAlreadyBorrowed), http.StatusConflict},
		{domain.InvalidArgument("bad"), http.StatusBadRequest},
		{domain.Unauthenticated("who"), http.StatusUnauthorized},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, statusFor(domain.KindOf(c.err)), c.err.Error())
	}
}

func TestLendingRoutes(t *testing.T) {
	t.Run("Borrow", func(t *testing.T) {
		f := newRouterFixture(t)
		f.lending.On("Borrow", mock.Anything, int32(2), int32(10)).Return(int32(7), nil)

		rec := f.do(http.MethodPost, "/api/v1/books/borrow/10", "", f.token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":7}`, rec.Body.String())
	})

	t.Run("RuleViolation", func(t *testing.T) {
		f := newRouterFixture(t)
		f.lending.On("Borrow", mock.Anything, int32(2), int32(10)).Return(int32(0), domain.OperationNotPermitted(domain.MsgAlreadyBorrowed))

		rec := f.do(http.MethodPost, "/api/v1/books/borrow/10", "", f.token)
		assert.Equal(t, http.StatusConflict, rec.Code)
		var body errorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, errorResponse{Kind: "OPERATION_NOT_PERMITTED", Message: domain.MsgAlreadyBorrowed}, body)
	})

	t.Run("ReturnAndApprove", func(t *testing.T) {
		f := newRouterFixture(t)
		f.lending.On("Return", mock.Anything, int32(2), int32(10)).Return(int32(7), nil)
		f.lending.On("ApproveReturn", mock.Anything, int32(2), int32(10)).Return(int32(0), domain.OperationNotPermitted(domain.MsgNotOwnerApproval))

		assert.Equal(t, http.StatusOK, f.do(http.MethodPatch, "/api/v1/books/borrow/return/10", "", f.token).Code)
		assert.Equal(t, http.StatusConflict, f.do(http.MethodPatch, "/api/v1/books/borrow/return/approve/10", "", f.token).Code)
	})

	t.Run("InternalErrorIsHidden", func(t *testing.T) {
		f := newRouterFixture(t)
		f.lending.On("Borrow", mock.Anything, int32(2), int32(10)).Return(int32(0), errors.New("pq: connection refused"))

		rec := f.do(http.MethodPost, "/api/v1/books/borrow/10", "", f.token)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
	})

	t.Run("BorrowedList", func(t *testing.T) {
		f := newRouterFixture(t)
		page := domain.NewPageRequest(0, domain.DefaultPageSize)
		views := []domain.LoanView{{
			Loan: domain.Loan{ID: 7, BookID: 10, UserID: 2, Returned: true},
			Book: domain.Book{ID: 10, Title: "Dune", AuthorName: "Frank Herbert"},
			Rate: 4.5,
		}}
		res := domain.NewPage(views, page, 1)
		f.lending.On("ListBorrowedBooks", mock.Anything, int32(2), page).Return(&res, nil)

		rec := f.do(http.MethodGet, "/api/v1/books/borrowed", "", f.token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body PageResponse[BorrowedBookResponse]
		decodeBody(t, rec, &body)
		require.Len(t, body.Content, 1)
		assert.Equal(t, int32(10), body.Content[0].ID)
		assert.Equal(t, int32(7), body.Content[0].LoanID)
		assert.True(t, body.Content[0].Returned)
		assert.Equal(t, int64(1), body.TotalElements)
	})
}

func TestBookRoutes(t *testing.T) {
	t.Run("SaveBook", func(t *testing.T) {
		f := newRouterFixture(t)
		f.books.On("SaveBook", mock.Anything, int32(2), service.SaveBookRequest{
			Title: "Dune", AuthorName: "Frank Herbert", ISBN: "9780441013593", Shareable: true,
		}).Return(int32(10), nil)

		rec := f.do(http.MethodPost, "/api/v1/books",
			`{"title":"Dune","authorName":"Frank Herbert","isbn":"9780441013593","shareable":true}`, f.token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":10}`, rec.Body.String())
	})

	t.Run("MalformedBody", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/v1/books", `{"title":`, f.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GetBook", func(t *testing.T) {
		f := newRouterFixture(t)
		f.books.On("GetBook", mock.Anything, int32(10)).Return(&domain.BookView{
			Book:      domain.Book{ID: 10, Title: "Dune", Cover: "covers/10/x.png", Shareable: true},
			OwnerName: "Alice Reader",
			Rate:      4.8,
		}, nil)

		rec := f.do(http.MethodGet, "/api/v1/books/10", "", f.token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body BookResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "Alice Reader", body.Owner)
		assert.Equal(t, "/api/v1/books/cover/10", body.Cover)
		assert.Equal(t, 4.8, body.Rate)
	})

	t.Run("Pagination", func(t *testing.T) {
		f := newRouterFixture(t)
		page := domain.NewPageRequest(1, 5)
		res := domain.NewPage([]domain.BookView{}, page, 6)
		f.books.On("ListDisplayableBooks", mock.Anything, int32(2), page).Return(&res, nil)

		rec := f.do(http.MethodGet, "/api/v1/books?page=1&size=5", "", f.token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body PageResponse[BookResponse]
		decodeBody(t, rec, &body)
		assert.Equal(t, int32(2), body.TotalPages)
		assert.True(t, body.Last)
		assert.NotNil(t, body.Content)
	})

	t.Run("Sort", func(t *testing.T) {
		f := newRouterFixture(t)
		page := domain.NewPageRequest(0, 10, domain.Sort{Field: "title", Direction: domain.SortAsc})
		res := domain.NewPage([]domain.BookView{}, page, 0)
		f.books.On("ListOwnedBooks", mock.Anything, int32(2), page).Return(&res, nil)

		rec := f.do(http.MethodGet, "/api/v1/books/owner?sort=title,asc", "", f.token)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.books.AssertExpectations(t)
	})

	t.Run("BadSort", func(t *testing.T) {
		f := newRouterFixture(t)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/books?sort=password_hash", "", f.token).Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/books?sort=title,sideways", "", f.token).Code)
	})

	t.Run("BadPagination", func(t *testing.T) {
		f := newRouterFixture(t)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/books?page=-1", "", f.token).Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/books/owner?size=abc", "", f.token).Code)
	})

	t.Run("ToggleForeign", func(t *testing.T) {
		f := newRouterFixture(t)
		f.books.On("ToggleArchived", mock.Anything, int32(2), int32(10)).Return(int32(0), domain.PermissionDenied(domain.MsgForeignBookFlag))

		rec := f.do(http.MethodPatch, "/api/v1/books/archived/10", "", f.token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Register", mock.Anything, mock.MatchedBy(func(r service.RegisterRequest) bool {
			return r.Email == "ada@example.com" && r.DateOfBirth != nil && r.DateOfBirth.Year() == 1990
		})).Return(&domain.User{ID: 5}, nil)

		rec := f.do(http.MethodPost, "/api/v1/auth/register",
			`{"firstname":"Ada","lastname":"Lovelace","email":"ada@example.com","password":"correct-horse","dateOfBirth":"1990-12-10"}`, "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("RegisterBadDate", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/v1/auth/register", `{"email":"ada@example.com","dateOfBirth":"10/12/1990"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Authenticate", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Authenticate", mock.Anything, "ada@example.com", "correct-horse").Return("signed.jwt", nil)

		rec := f.do(http.MethodPost, "/api/v1/auth/authenticate", `{"email":"ada@example.com","password":"correct-horse"}`, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token":"signed.jwt"}`, rec.Body.String())
	})

	t.Run("ActivateAccount", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("ActivateAccount", mock.Anything, "123456").Return(nil)

		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/auth/activate-account?token=123456", "", "").Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/auth/activate-account", "", "").Code)
	})
}

func TestFeedbackRoutes(t *testing.T) {
	t.Run("Save", func(t *testing.T) {
		f := newRouterFixture(t)
		f.feedback.On("SaveFeedback", mock.Anything, int32(2), int32(10), 4.5, "great").Return(int32(3), nil)

		rec := f.do(http.MethodPost, "/api/v1/feedbacks", `{"note":4.5,"comment":"great","bookId":10}`, f.token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":3}`, rec.Body.String())
	})

	t.Run("MissingNote", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/v1/feedbacks", `{"comment":"great","bookId":10}`, f.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ListByBook", func(t *testing.T) {
		f := newRouterFixture(t)
		page := domain.NewPageRequest(0, domain.DefaultPageSize)
		res := domain.NewPage([]domain.FeedBackView{{FeedBack: domain.FeedBack{Note: 5, Comment: "loved it"}, OwnFeedback: true}}, page, 1)
		f.feedback.On("ListFeedbackByBook", mock.Anything, int32(2), int32(10), page).Return(&res, nil)

		rec := f.do(http.MethodGet, "/api/v1/feedbacks/book/10", "", f.token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body PageResponse[FeedbackResponse]
		decodeBody(t, rec, &body)
		require.Len(t, body.Content, 1)
		assert.True(t, body.Content[0].OwnFeedback)
	})
}

func multipartCover(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="cover.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCoverRoutes(t *testing.T) {
	t.Run("Upload", func(t *testing.T) {
		f := newRouterFixture(t)
		f.books.On("UploadCover", mock.Anything, int32(2), int32(10), "cover.png", "image/png", "png-bytes").
			Return("covers/10/abc.png", nil)

		body, contentType := multipartCover(t, "image/png", []byte("png-bytes"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/cover/10", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		f.books.AssertExpectations(t)
	})

	t.Run("UploadWithoutFile", func(t *testing.T) {
		f := newRouterFixture(t)
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/books/cover/10", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("OpenIsPublic", func(t *testing.T) {
		f := newRouterFixture(t)
		f.books.On("OpenCover", mock.Anything, int32(10)).Return(io.NopCloser(strings.NewReader("png-bytes")), "image/png", nil)

		rec := f.do(http.MethodGet, "/api/v1/books/cover/10", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "png-bytes", rec.Body.String())
	})

	t.Run("OpenMissing", func(t *testing.T) {
		f := newRouterFixture(t)
		f.books.On("OpenCover", mock.Anything, int32(10)).Return(nil, "", domain.NotFound("book 10 has no cover"))

		rec := f.do(http.MethodGet, "/api/v1/books/cover/10", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
