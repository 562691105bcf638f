package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/http/response"
)

// RegisterErrorHandler makes huma render every failure as a problem
// document. Domain errors keep their code and status; huma's own request
// validation failures become INVALID_ARGUMENT with one entry per field.
// Unexpected errors are logged to logger and hidden from the client.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		p := newProblem(status, message, errs...)
		if p.Status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", "status", p.Status, "message", message, "errors", errs)
		}
		return p
	}
}

func newProblem(status int, message string, errs ...error) *response.Problem {
	var fieldErrs []response.FieldError
	for _, err := range errs {
		if err == nil {
			continue
		}

		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return response.FromError(domainErr)
		}

		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			d := detailer.ErrorDetail()
			fieldErrs = append(fieldErrs, response.FieldError{
				Location: d.Location,
				Message:  d.Message,
				Value:    d.Value,
			})
		}
	}

	// Body and parameter validation is reported as a plain 400 so clients
	// see one status for every invalid argument.
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}

	p := response.New(status, response.CodeForStatus(status), message)
	p.Errors = fieldErrs
	return p
}
