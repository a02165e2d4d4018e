package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-lexicon/internal/api/shared"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/phrazzld/scry-lexicon/internal/service/auth"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// kindStatus maps generation failure kinds to HTTP status codes. Failures
// caused by the upstream generator surface as gateway errors.
var kindStatus = map[generation.ErrorKind]int{
	generation.KindInputInvalid:      http.StatusBadRequest,
	generation.KindUnauthorized:      http.StatusBadGateway,
	generation.KindRateLimited:       http.StatusTooManyRequests,
	generation.KindServerError:       http.StatusBadGateway,
	generation.KindOffline:           http.StatusServiceUnavailable,
	generation.KindClientError:       http.StatusUnprocessableEntity,
	generation.KindMalformedResponse: http.StatusBadGateway,
	generation.KindCancelled:         http.StatusServiceUnavailable,
	generation.KindAlreadyRunning:    http.StatusConflict,
}

var kindMessage = map[generation.ErrorKind]string{
	generation.KindInputInvalid:      "Invalid generation request",
	generation.KindUnauthorized:      "Generation service rejected the configured credentials",
	generation.KindRateLimited:       "Generation service rate limit exceeded",
	generation.KindServerError:       "Generation service failed",
	generation.KindOffline:           "Generation service unreachable",
	generation.KindClientError:       "Generation service rejected the request",
	generation.KindMalformedResponse: "Generation service returned an unusable response",
	generation.KindCancelled:         "Request cancelled",
	generation.KindAlreadyRunning:    "A batch is already running",
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var genErr *generation.Error
	if errors.As(err, &genErr) {
		if status, ok := kindStatus[genErr.Kind]; ok {
			return status
		}
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrWordNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var genErr *generation.Error
	if errors.As(err, &genErr) {
		if msg, ok := kindMessage[genErr.Kind]; ok {
			return msg
		}
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, service.ErrWordNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Word not found"
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid entity data"
	default:
		return "An unexpected error occurred"
	}
}

// respondWithServiceError writes the response for a failed service call.
// Generation failures carry their kind and recovery suggestion.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var opts []shared.ResponseOption
	var genErr *generation.Error
	if errors.As(err, &genErr) {
		opts = append(opts, shared.WithErrorKind(string(genErr.Kind), genErr.Kind.RecoverySuggestion()))
		if genErr.Kind == generation.KindAlreadyRunning {
			opts = append(opts, shared.WithElevatedLogLevel())
		}
	}

	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err, opts...)
}

// SanitizeValidationError turns a validator error into a short message that
// names the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "bcp47_language_tag":
		return "invalid language tag"
	default:
		return "validation failed"
	}
}
