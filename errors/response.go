package errors

import (
	stderrors "errors"
	"net/http"
)

// ErrorResponse is the JSON body returned to clients on failure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Detail: e.Message}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Resolve maps any error to its HTTP status and response body. Errors that
// are not AppErrors become 500s carrying err.Error() as the detail.
func Resolve(err error) (int, ErrorResponse) {
	if appErr, ok := AsAppError(err); ok {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, appErr.ToResponse()
	}
	return http.StatusInternalServerError, ErrorResponse{Detail: err.Error()}
}
