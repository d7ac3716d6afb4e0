package tenant

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nexacrm/ledgerd/internal/platform/httpx"
)

// DefaultHeader is set by the authentication gateway in front of the service.
const DefaultHeader = "X-Organization-ID"

// Middleware resolves the organization from the trusted header. Requests
// without a valid organization are rejected with 401.
func Middleware(header string) func(http.Handler) http.Handler {
	if strings.TrimSpace(header) == "" {
		header = DefaultHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org, err := Parse(r.Header.Get(header))
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOrganization(r.Context(), org)))
		})
	}
}

// Parse validates an organization id.
func Parse(value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, fmt.Errorf("organization required: %w", httpx.ErrUnauthorized)
	}
	org, err := uuid.Parse(value)
	if err != nil || org == uuid.Nil {
		return uuid.Nil, fmt.Errorf("organization %q is not a valid id: %w", value, httpx.ErrUnauthorized)
	}
	return org, nil
}
