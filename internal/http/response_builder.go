package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"payroll/internal/core"
	"payroll/internal/ledger"
	applog "payroll/internal/log"
)

// ResponseBuilder provides a fluent API for JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response. A nil payload writes no body.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message, detail string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message, Detail: detail})
}

func BadRequestError(message, detail string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, detail)
}

func UnprocessableEntityError(message, detail string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, detail)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message, "")
}

// validationError marks input that parsed but broke an entry rule.
type validationError struct{ err error }

func (e *validationError) Error() string { return e.err.Error() }
func (e *validationError) Unwrap() error { return e.err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &validationError{err: err}
}

// badQuery marks malformed query parameters.
type badQuery struct{ err error }

func (e *badQuery) Error() string { return e.err.Error() }
func (e *badQuery) Unwrap() error { return e.err }

// validationMessage is the user-facing text for a rejected entry.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "اسم الموظف مطلوب"
	case errors.Is(err, core.ErrInvalidAmount):
		return "المبلغ يجب أن يكون رقماً أكبر من صفر"
	case errors.Is(err, core.ErrInvalidDate):
		return "التاريخ غير صالح"
	case errors.Is(err, core.ErrMissingEmployee):
		return "يجب اختيار الموظف"
	case errors.Is(err, ledger.ErrUnknownEmployee):
		return "الموظف غير موجود"
	default:
		return "البيانات المدخلة غير صالحة"
	}
}

// writeError maps err to a status code and writes it. Only server-side
// failures are logged here; client errors show up in the access log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *validationError
	var bq *badQuery
	switch {
	case errors.Is(err, errMalformedBody):
		BadRequestError("صيغة الطلب غير صالحة", err.Error()).Write(w)
	case errors.As(err, &bq):
		BadRequestError("معاملات الطلب غير صالحة", err.Error()).Write(w)
	case errors.As(err, &ve), errors.Is(err, ledger.ErrUnknownEmployee):
		UnprocessableEntityError(validationMessage(err), err.Error()).Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
				applog.NewFields().WithErrorType(applog.ErrorTypeDatabase))
		InternalServerError("تعذر حفظ البيانات، حاول مرة أخرى").Write(w)
	}
}
