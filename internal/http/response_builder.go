// Response building for the JSON API and the mapping from domain errors to
// status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mineplan/internal/core"
	"mineplan/internal/log"
	"mineplan/internal/middleware/trace"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Date      string `json:"date,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse creates an error response with the given status and code.
func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// errorStatus maps a service error to its status, code and log error type.
func errorStatus(err error) (status int, code, errorType string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large", log.ErrorTypeValidation
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "bad_request", log.ErrorTypeValidation
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error", log.ErrorTypeValidation
	case errors.Is(err, core.ErrComputation):
		return http.StatusUnprocessableEntity, "computation_error", log.ErrorTypeComputation
	case errors.Is(err, core.ErrDuplicatePeriod):
		return http.StatusConflict, "duplicate_period", log.ErrorTypeConflict
	case errors.Is(err, core.ErrNotDeletable):
		return http.StatusConflict, "not_deletable", log.ErrorTypeConflict
	case errors.Is(err, core.ErrNotEditable):
		return http.StatusConflict, "not_editable", log.ErrorTypeConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found", log.ErrorTypeNotFound
	case errors.Is(err, core.ErrStorage):
		return http.StatusInternalServerError, "storage_error", log.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, "internal_error", log.ErrorTypeInternal
	}
}

// writeError logs err and writes the matching error response. Internal
// failures are reported without their details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, errorType := errorStatus(err)

	detail := errorDetail{
		Code:      code,
		Message:   err.Error(),
		RequestID: trace.GetRequestID(r.Context()),
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		detail.Field = verr.Field
	}
	var cerr *core.ComputationError
	if errors.As(err, &cerr) {
		detail.Field = cerr.Field
		if !cerr.Date.IsZero() {
			detail.Date = cerr.Date.String()
		}
	}

	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldErrorType, errorType)
		detail.Message = http.StatusText(status)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err,
			log.FieldErrorType, errorType)
	}

	NewResponse().Status(status).JSON(errorBody{Error: detail}).Write(w)
}
