package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/log"
	"fintrack/internal/source"
)

var errInvalidInput = errors.New("invalid input")

// inputErrors are answered with 400 and their own message.
var inputErrors = []error{
	errInvalidInput,
	core.ErrInvalidDate,
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrCategoryTooLong,
	core.ErrDescriptionTooLong,
	csvio.ErrEmptyFile,
	csvio.ErrMissingHeader,
}

func isInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError maps service errors to responses. Only unexpected errors are
// logged; client mistakes are visible in the request log.
func writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, source.ErrReadOnly):
		NotImplementedError("The configured data backend is read-only.").Write(w)
	case errors.Is(err, source.ErrNotFound):
		NotFoundError("Transaction not found.").Write(w)
	case isInputError(err):
		BadRequestError(err.Error()).Write(w)
	default:
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, log.ComponentHTTP, op, log.NewFields().WithUser(userID(ctx)))
		InternalServerError("Internal server error.").Write(w)
	}
}
