package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskmaster-api/internal/domain"
)

// getPathParam returns a URL path parameter in decoded form. chi matches on
// r.URL.RawPath when the request carried escapes that Path cannot represent
// (such as %2F) and on the already-decoded r.URL.Path otherwise, so only the
// former needs unescaping. Decoding twice would turn a task id like "a%41"
// into "aA".
func getPathParam(r *http.Request, paramName string) (string, error) {
	value := chi.URLParam(r, paramName)
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(value)
		if err != nil {
			return "", domain.NewValidationError(paramName, "has invalid encoding", domain.ErrValidation)
		}
		value = unescaped
	}
	if value == "" {
		return "", domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	return value, nil
}
