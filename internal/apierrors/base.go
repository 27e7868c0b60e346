package apierrors

import "net/http"

const (
	InternalServerErr = "INTERNAL_SERVER_ERROR"
	JSONDecodeErr     = "JSON_DECODE_ERROR"
	ValidationErr     = "VALIDATION_ERROR"
)

// APIError is the transport-facing error shape: a stable machine-readable
// code, a human message and the HTTP status the caller maps it onto.
type APIError struct {
	Code    string
	Message string
	Status  int
	Context *map[string]any
}

func (e *APIError) SetContext(context *map[string]any) {
	e.Context = context
}

func (e *APIError) DefaultError() *APIError {
	return InternalServerErrorMessage()
}

func InternalServerErrorMessage() *APIError {
	return &APIError{
		Code:    InternalServerErr,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}
}

func JSONDecodeErrorMessage() *APIError {
	return &APIError{
		Code:    JSONDecodeErr,
		Message: "Can't decode JSON body",
		Status:  http.StatusBadRequest,
	}
}
