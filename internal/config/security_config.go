package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// Route names as registered on the HTTP router.
const (
	RouteRegister           = "auth.register"
	RouteAuthenticate       = "auth.authenticate"
	RouteActivateAccount    = "auth.activate"
	RouteSaveBook           = "books.save"
	RouteGetBook            = "books.get"
	RouteListBooks          = "books.list"
	RouteListOwnedBooks     = "books.owner"
	RouteListBorrowedBooks  = "books.borrowed"
	RouteListReturnedBooks  = "books.returned"
	RouteToggleShareable    = "books.shareable"
	RouteToggleArchived     = "books.archived"
	RouteBorrowBook         = "books.borrow"
	RouteReturnBook         = "books.return"
	RouteApproveReturn      = "books.approve"
	RouteUploadCover        = "books.cover.upload"
	RouteOpenCover          = "books.cover.open"
	RouteSaveFeedback       = "feedbacks.save"
	RouteListFeedbackByBook = "feedbacks.book"
	RouteHealth             = "health"
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	RouteRegister:        SecurityPublic,
	RouteAuthenticate:    SecurityPublic,
	RouteActivateAccount: SecurityPublic,
	RouteHealth:          SecurityPublic,
	// Covers are served to <img> tags without headers.
	RouteOpenCover: SecurityPublic,

	RouteSaveBook:           SecurityAccess,
	RouteGetBook:            SecurityAccess,
	RouteListBooks:          SecurityAccess,
	RouteListOwnedBooks:     SecurityAccess,
	RouteListBorrowedBooks:  SecurityAccess,
	RouteListReturnedBooks:  SecurityAccess,
	RouteToggleShareable:    SecurityAccess,
	RouteToggleArchived:     SecurityAccess,
	RouteBorrowBook:         SecurityAccess,
	RouteReturnBook:         SecurityAccess,
	RouteApproveReturn:      SecurityAccess,
	RouteUploadCover:        SecurityAccess,
	RouteSaveFeedback:       SecurityAccess,
	RouteListFeedbackByBook: SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
