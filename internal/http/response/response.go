// Package response renders API failures as RFC 7807 problem documents.
//
// Huma handlers produce them through the error hook installed by the api
// package; plain chi middleware (rate limiting, panic recovery) writes them
// directly with Write.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
)

// ContentType is the media type of every problem document.
const ContentType = "application/problem+json"

// FieldError locates one invalid input value.
type FieldError struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
	Value    any    `json:"value,omitempty"`
}

// Problem is an RFC 7807 problem document extended with the domain error
// code and the offending field, when one is known.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Code     string       `json:"code"`
	Field    string       `json:"field,omitempty"`
	Expected string       `json:"expected,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Details  any          `json:"details,omitempty"`
}

// Error implements error.
func (p *Problem) Error() string {
	return p.Detail
}

// GetStatus returns the HTTP status (huma.StatusError).
func (p *Problem) GetStatus() int {
	return p.Status
}

// ContentType forces the problem media type regardless of the negotiated one.
func (p *Problem) ContentType(string) string {
	return ContentType
}

// New builds a problem for status with the given code and detail.
func New(status int, code domainerrors.Code, detail string) *Problem {
	return &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   string(code),
	}
}

// FromError maps err to a problem. Domain errors keep their code, message
// and details; anything else is an opaque 500.
func FromError(err error) *Problem {
	var de *domainerrors.Error
	if !errors.As(err, &de) {
		return New(http.StatusInternalServerError, domainerrors.CodeInternal, "internal server error")
	}

	p := New(de.HTTPStatus(), de.Code, de.Message)
	switch d := de.Details.(type) {
	case nil:
	case domainerrors.FieldDetails:
		p.Field, p.Expected = d.Field, d.Expected
	case *domainerrors.FieldDetails:
		if d != nil {
			p.Field, p.Expected = d.Field, d.Expected
		}
	default:
		p.Details = d
	}
	return p
}

// CodeForStatus picks the domain code for a bare HTTP status.
func CodeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeInvalidArgument
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	case http.StatusServiceUnavailable:
		return domainerrors.CodeUnavailable
	default:
		return domainerrors.CodeInternal
	}
}

// Write sends p as the response.
func Write(w http.ResponseWriter, p *Problem, logger *slog.Logger) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)

	if err := json.NewEncoder(w).Encode(p); err != nil && logger != nil {
		logger.Error("failed to encode problem response", "error", err)
	}
}

// HandleError writes the problem for err. Unexpected errors are logged.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	p := FromError(err)
	if p.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	Write(w, p, logger)
}

// TooManyRequests writes a 429 with a Retry-After hint in whole seconds.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration, logger *slog.Logger) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Write(w, New(http.StatusTooManyRequests, domainerrors.CodeRateLimited, "too many requests, retry later"), logger)
}
