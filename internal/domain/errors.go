package domain

import "net/http"

// Error is a domain failure with a machine-readable code and an HTTP status hint.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Auth errors
var (
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", Status: http.StatusUnauthorized}
	ErrTokenExpired       = &Error{Code: "TOKEN_EXPIRED", Message: "Token has expired", Status: http.StatusUnauthorized}
	ErrInvalidToken       = &Error{Code: "INVALID_TOKEN", Message: "Invalid token", Status: http.StatusUnauthorized}
	ErrUserNotFound       = &Error{Code: "USER_NOT_FOUND", Message: "User not found", Status: http.StatusNotFound}
	ErrEmailAlreadyExists = &Error{Code: "EMAIL_ALREADY_EXISTS", Message: "Email already registered", Status: http.StatusBadRequest}
)

// Restaurant errors
var (
	ErrRestaurantNotFound = &Error{Code: "RESTAURANT_NOT_FOUND", Message: "Restaurant not found", Status: http.StatusNotFound}
	ErrForbidden          = &Error{Code: "FORBIDDEN", Message: "You are not allowed to perform this action", Status: http.StatusForbidden}
	ErrCommentNotFound    = &Error{Code: "COMMENT_NOT_FOUND", Message: "Comment not found", Status: http.StatusNotFound}
	ErrRatingInvalid      = &Error{Code: "RATING_INVALID", Message: "Rating must be between 1 and 5", Status: http.StatusBadRequest}
)
