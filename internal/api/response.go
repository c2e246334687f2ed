package api

import (
	"net/http"

	"finchat/pkg/finchat"
)

// ErrorResponse is the error payload for every failed request.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// writeErrorResponse writes an error response, mapping structured finchat
// errors to appropriate HTTP statuses.
func writeErrorResponse(w http.ResponseWriter, httpStatus int, err error) {
	response := ErrorResponse{
		Code:    httpStatus,
		Message: err.Error(),
	}

	if fcErr, ok := err.(*finchat.Error); ok {
		response.ErrorCode = string(fcErr.Code)
		httpStatus = mapErrorCodeToHTTPStatus(fcErr.Code)
		response.Code = httpStatus
	}

	writeJSON(w, httpStatus, response)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code finchat.ErrorCode) int {
	switch code {
	case finchat.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case finchat.ErrCodeNotFound, finchat.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case finchat.ErrCodeDocument:
		return http.StatusUnprocessableEntity
	case finchat.ErrCodeInsufficientData:
		return http.StatusBadGateway
	case finchat.ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
