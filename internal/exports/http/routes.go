// Package exportshttp exposes the accounting exports over HTTP.
package exportshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/nexacrm/ledgerd/internal/platform/httpx"
	"github.com/nexacrm/ledgerd/internal/tenant"
)

const defaultRateLimit = 30

// MountRoutes registers export endpoints onto the router. The router must
// run the tenant middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limit := h.rateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	limiter := httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)

	r.Get("/fec/preview", h.handlePreview)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/fec", h.handleFEC)
		gr.Post("/fec/jobs", h.handleEnqueue)
		gr.Get("/csv/{type}", h.handleCSV)
		gr.Get("/xlsx/{type}", h.handleXLSX)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if org, ok := tenant.FromContext(r.Context()); ok {
		return "org:" + org.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
