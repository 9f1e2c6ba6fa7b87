package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"book-network-backend/internal/config"
	"book-network-backend/internal/security"
	"book-network-backend/internal/service"
)

// Services groups the services exposed over HTTP.
type Services struct {
	Auth     service.AuthService
	Books    service.BookService
	Lending  service.LendingService
	Feedback service.FeedbackService
}

// NewRouter registers every API route under /api/v1. Route names drive the
// security level applied by the auth middleware.
func NewRouter(svcs Services, tm security.TokenManager, maxCoverBytes int64) *mux.Router {
	authH := NewAuthHandler(svcs.Auth)
	bookH := NewBookHandler(svcs.Books)
	lendingH := NewLendingHandler(svcs.Lending)
	feedbackH := NewFeedbackHandler(svcs.Feedback)
	coverH := NewCoverHandler(svcs.Books, maxCoverBytes)

	router := mux.NewRouter()
	router.HandleFunc("/health", health).Methods(http.MethodGet).Name(config.RouteHealth)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(LoggingMiddleware, NewAuthMiddleware(tm).Middleware)

	api.HandleFunc("/auth/register", authH.Register).Methods(http.MethodPost).Name(config.RouteRegister)
	api.HandleFunc("/auth/authenticate", authH.Authenticate).Methods(http.MethodPost).Name(config.RouteAuthenticate)
	api.HandleFunc("/auth/activate-account", authH.ActivateAccount).Methods(http.MethodGet).Name(config.RouteActivateAccount)

	api.HandleFunc("/books", bookH.SaveBook).Methods(http.MethodPost).Name(config.RouteSaveBook)
	api.HandleFunc("/books", bookH.ListBooks).Methods(http.MethodGet).Name(config.RouteListBooks)
	api.HandleFunc("/books/owner", bookH.ListOwnedBooks).Methods(http.MethodGet).Name(config.RouteListOwnedBooks)
	api.HandleFunc("/books/borrowed", lendingH.ListBorrowedBooks).Methods(http.MethodGet).Name(config.RouteListBorrowedBooks)
	api.HandleFunc("/books/returned", lendingH.ListReturnedBooks).Methods(http.MethodGet).Name(config.RouteListReturnedBooks)
	api.HandleFunc("/books/{id:[0-9]+}", bookH.GetBook).Methods(http.MethodGet).Name(config.RouteGetBook)
	api.HandleFunc("/books/shareable/{id:[0-9]+}", bookH.ToggleShareable).Methods(http.MethodPatch).Name(config.RouteToggleShareable)
	api.HandleFunc("/books/archived/{id:[0-9]+}", bookH.ToggleArchived).Methods(http.MethodPatch).Name(config.RouteToggleArchived)
	api.HandleFunc("/books/borrow/{id:[0-9]+}", lendingH.Borrow).Methods(http.MethodPost).Name(config.RouteBorrowBook)
	api.HandleFunc("/books/borrow/return/{id:[0-9]+}", lendingH.Return).Methods(http.MethodPatch).Name(config.RouteReturnBook)
	api.HandleFunc("/books/borrow/return/approve/{id:[0-9]+}", lendingH.ApproveReturn).Methods(http.MethodPatch).Name(config.RouteApproveReturn)
	api.HandleFunc("/books/cover/{id:[0-9]+}", coverH.UploadCover).Methods(http.MethodPost).Name(config.RouteUploadCover)
	api.HandleFunc("/books/cover/{id:[0-9]+}", coverH.OpenCover).Methods(http.MethodGet).Name(config.RouteOpenCover)

	api.HandleFunc("/feedbacks", feedbackH.SaveFeedback).Methods(http.MethodPost).Name(config.RouteSaveFeedback)
	api.HandleFunc("/feedbacks/book/{id:[0-9]+}", feedbackH.ListFeedbackByBook).Methods(http.MethodGet).Name(config.RouteListFeedbackByBook)

	return router
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}
