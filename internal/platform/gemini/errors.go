package gemini

import (
	"errors"
	"net/http"

	"github.com/phrazzld/scry-lexicon/internal/generation"
	"google.golang.org/genai"
)

// Error definitions for the gemini package.
var (
	// ErrInvalidConfig is returned by NewClient for unusable configuration.
	ErrInvalidConfig = errors.New("invalid gemini configuration")
)

// classifyError maps a GenerateContent failure onto the generation error
// taxonomy. API errors are classified by HTTP status; everything else
// (cancellation, timeouts, transport failures) goes through
// generation.AsError.
func classifyError(err error) *generation.Error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code, err)
	}

	return generation.AsError(err)
}

func classifyStatus(code int, cause error) *generation.Error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return generation.Unauthorized(cause)
	case code == http.StatusTooManyRequests:
		return generation.RateLimited(cause)
	case code >= 500:
		return generation.ServerError(code, cause)
	case code >= 400:
		return generation.ClientError(code, cause)
	default:
		return generation.ServerError(code, cause)
	}
}
