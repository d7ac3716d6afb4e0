package exportshttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nexacrm/ledgerd/internal/exports"
	"github.com/nexacrm/ledgerd/internal/exports/fec"
	"github.com/nexacrm/ledgerd/internal/platform/httpx"
	"github.com/nexacrm/ledgerd/internal/tenant"
	"github.com/nexacrm/ledgerd/jobs"
)

// ExportService defines the export contract used by the handler.
type ExportService interface {
	ExportFEC(ctx context.Context, req exports.Request) (exports.Export, error)
	Preview(ctx context.Context, org uuid.UUID, p exports.Period) (exports.Preview, error)
	Tabular(ctx context.Context, org uuid.UUID, ds exports.Dataset, p exports.Period, format exports.Format) (exports.Export, error)
}

// Enqueuer submits archived FEC exports to the background worker.
type Enqueuer interface {
	EnqueueFECExport(ctx context.Context, payload jobs.FECExportPayload) (string, error)
}

type fecQuery struct {
	FromDate string `validate:"required,datetime=2006-01-02"`
	ToDate   string `validate:"required,datetime=2006-01-02"`
	SIREN    string `validate:"omitempty,numeric,len=9"`
	// Encoding is checked by fec.ParseEncoding, which is case-insensitive.
	Encoding string
}

type rangeQuery struct {
	FromDate string `validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `validate:"omitempty,datetime=2006-01-02"`
}

var queryFields = map[string]string{
	"FromDate": "from_date",
	"ToDate":   "to_date",
	"SIREN":    "siren",
	"Encoding": "encoding",
}

// Handler serves the export endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ExportService
	jobs      Enqueuer
	validator *validator.Validate
	timeout   time.Duration
	rateLimit int
	now       func() time.Time
}

// Config tunes the handler.
type Config struct {
	// RequestTimeout bounds the data loading of one export. Zero keeps the
	// request context as is.
	RequestTimeout time.Duration
	// RateLimit is the number of exports per minute and organization.
	RateLimit int
}

// NewHandler constructs the exports HTTP handler. jobs may be nil, in which
// case asynchronous exports answer 503.
func NewHandler(logger *slog.Logger, service ExportService, enqueuer Enqueuer, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		jobs:      enqueuer,
		validator: validator.New(),
		timeout:   cfg.RequestTimeout,
		rateLimit: cfg.RateLimit,
		now:       time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleFEC(w http.ResponseWriter, r *http.Request) {
	org, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("organization required: %w", httpx.ErrUnauthorized))
		return
	}
	req, err := h.parseFEC(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.Organization = org

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	export, err := h.service.ExportFEC(ctx, req)
	if err != nil {
		h.handleError(w, "export fec", err)
		return
	}
	if err := httpx.Attachment(w, export.ContentType, export.Filename, export.Content); err != nil {
		h.logError("stream fec", err)
	}
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	org, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("organization required: %w", httpx.ErrUnauthorized))
		return
	}
	q := rangeQuery{FromDate: query(r, "from_date"), ToDate: query(r, "to_date")}
	period, err := exports.ParsePeriod(q.FromDate, q.ToDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	preview, err := h.service.Preview(ctx, org, period)
	if err != nil {
		h.handleError(w, "preview fec", err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	h.handleTabular(w, r, exports.FormatCSV)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	h.handleTabular(w, r, exports.FormatXLSX)
}

func (h *Handler) handleTabular(w http.ResponseWriter, r *http.Request, format exports.Format) {
	org, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("organization required: %w", httpx.ErrUnauthorized))
		return
	}
	ds, err := exports.ParseDataset(chi.URLParam(r, "type"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := rangeQuery{FromDate: query(r, "from_date"), ToDate: query(r, "to_date")}
	if err := h.validate(q); err != nil {
		httpx.RespondError(w, err)
		return
	}
	period, err := exports.ParseOpenPeriod(q.FromDate, q.ToDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	export, err := h.service.Tabular(ctx, org, ds, period, format)
	if err != nil {
		h.handleError(w, "export "+string(format), err)
		return
	}
	if err := httpx.Attachment(w, export.ContentType, export.Filename, export.Content); err != nil {
		h.logError("stream "+string(format), err)
	}
}

// enqueueResponse is the answer of an accepted asynchronous export.
type enqueueResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	org, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("organization required: %w", httpx.ErrUnauthorized))
		return
	}
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "background exports are not configured")
		return
	}
	req, err := h.parseFEC(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	payload := jobs.FECExportPayload{
		Organization: org,
		FromDate:     req.Period.From.Format(exports.DateLayout),
		ToDate:       req.Period.To.Format(exports.DateLayout),
		SIREN:        req.SIREN,
		Encoding:     string(req.Encoding),
		RequestedAt:  h.now().UTC(),
	}
	id, err := h.jobs.EnqueueFECExport(r.Context(), payload)
	if err != nil {
		h.handleError(w, "enqueue fec", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueueResponse{TaskID: id, Status: "queued"})
}

func (h *Handler) parseFEC(r *http.Request) (exports.Request, error) {
	q := fecQuery{
		FromDate: query(r, "from_date"),
		ToDate:   query(r, "to_date"),
		SIREN:    query(r, "siren"),
		Encoding: query(r, "encoding"),
	}
	if q.FromDate == "" || q.ToDate == "" {
		return exports.Request{}, fmt.Errorf("from_date and to_date are required: %w", httpx.ErrValidation)
	}
	if err := h.validate(q); err != nil {
		return exports.Request{}, err
	}
	period, err := exports.ParsePeriod(q.FromDate, q.ToDate)
	if err != nil {
		return exports.Request{}, err
	}
	enc, err := fec.ParseEncoding(q.Encoding)
	if err != nil {
		return exports.Request{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	return exports.Request{Period: period, SIREN: q.SIREN, Encoding: enc}, nil
}

func (h *Handler) validate(v any) error {
	err := h.validator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := queryFields[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		fields = append(fields, fmt.Sprintf("%s (%s)", name, fe.Tag()))
	}
	sort.Strings(fields)
	return fmt.Errorf("invalid parameters: %s: %w", strings.Join(fields, ", "), httpx.ErrValidation)
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *Handler) handleError(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logError(msg, err)
	}
	httpx.RespondError(w, err)
}

func (h *Handler) logError(msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
}

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
