package exports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nexacrm/ledgerd/internal/exports/fec"
	"github.com/nexacrm/ledgerd/internal/exports/tabular"
)

// Repository exposes the reads the exports rely on. Every read is scoped to
// one organization and an inclusive date range.
type Repository interface {
	ListInvoices(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.Invoice, error)
	ListCreditNotes(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.CreditNote, error)
	ListPayments(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.Payment, error)
	ListExpenses(ctx context.Context, org uuid.UUID, from, to time.Time) ([]fec.Expense, error)
	Summarize(ctx context.Context, org uuid.UUID, from, to time.Time) (Summary, error)
	Dataset(ctx context.Context, org uuid.UUID, ds Dataset, from, to time.Time) (tabular.Table, error)
}

// Observer receives the outcome of every export.
type Observer interface {
	ObserveExport(kind, outcome string, lines int, elapsed time.Duration)
}

// Export kinds reported to the Observer.
const (
	KindFEC     = "fec"
	KindPreview = "preview"
	KindCSV     = "csv"
	KindXLSX    = "xlsx"
)

// Options tunes a Service.
type Options struct {
	DefaultSIREN string
	Observer     Observer
	Logger       *slog.Logger
}

// Service coordinates source reads, the FEC engine and the cache layer.
type Service struct {
	repo         Repository
	cache        *Cache
	observer     Observer
	logger       *slog.Logger
	defaultSIREN string
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		cache:        cache,
		observer:     opts.Observer,
		logger:       logger,
		defaultSIREN: opts.DefaultSIREN,
	}
}

// ExportFEC builds and renders the ledger of the period. The file is
// rendered in memory; any failure returns no content at all.
func (s *Service) ExportFEC(ctx context.Context, req Request) (Export, error) {
	start := time.Now()
	export, err := s.exportFEC(ctx, req)
	s.observe(KindFEC, err, export.Lines, start)
	if err != nil {
		s.logger.Error("fec export failed",
			slog.String("organization", req.Organization.String()),
			slog.String("from", req.Period.From.Format(DateLayout)),
			slog.String("to", req.Period.To.Format(DateLayout)),
			slog.Any("error", err))
		return Export{}, err
	}
	s.logger.Info("fec export generated",
		slog.String("organization", req.Organization.String()),
		slog.String("filename", export.Filename),
		slog.Int("lines", export.Lines),
		slog.Duration("elapsed", time.Since(start)))
	return export, nil
}

func (s *Service) exportFEC(ctx context.Context, req Request) (Export, error) {
	if err := ValidateSIREN(req.SIREN); err != nil {
		return Export{}, err
	}
	src, err := s.loadSources(ctx, req.Organization, req.Period)
	if err != nil {
		return Export{}, err
	}
	lines, err := fec.Build(src)
	if err != nil {
		return Export{}, fmt.Errorf("exports: build ledger: %w", err)
	}

	encoding := req.Encoding
	if encoding == "" {
		encoding = fec.EncodingUTF8
	}
	content, err := encoding.Encode(fec.Render(lines))
	if err != nil {
		return Export{}, err
	}

	siren := req.SIREN
	if siren == "" {
		siren = s.defaultSIREN
	}
	return Export{
		Filename:    fec.Filename(siren, req.Period.To),
		ContentType: encoding.ContentType(),
		Content:     content,
		Lines:       len(lines),
	}, nil
}

// loadSources runs the four reads concurrently. Each result lands in its
// own slot so the combined order never depends on scheduling.
func (s *Service) loadSources(ctx context.Context, org uuid.UUID, p Period) (fec.Sources, error) {
	var src fec.Sources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListInvoices(gctx, org, p.From, p.To)
		src.Invoices = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ListCreditNotes(gctx, org, p.From, p.To)
		src.CreditNotes = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ListPayments(gctx, org, p.From, p.To)
		src.Payments = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ListExpenses(gctx, org, p.From, p.To)
		src.Expenses = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return fec.Sources{}, err
	}
	return src, nil
}

// Preview summarizes what ExportFEC would include for the period.
func (s *Service) Preview(ctx context.Context, org uuid.UUID, p Period) (Preview, error) {
	start := time.Now()
	key, err := s.cache.BuildKey(ctx, previewKeyParts(org, p)...)
	if err != nil {
		s.observe(KindPreview, err, 0, start)
		return Preview{}, err
	}
	var out Preview
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		summary, err := s.repo.Summarize(ctx, org, p.From, p.To)
		if err != nil {
			return nil, err
		}
		return Preview{
			Period:         PeriodDTO{From: p.From.Format(DateLayout), To: p.To.Format(DateLayout)},
			Summary:        summary,
			EstimatedLines: summary.EstimateLines(),
		}, nil
	})
	s.observe(KindPreview, err, int(out.EstimatedLines), start)
	if err != nil {
		s.logger.Error("fec preview failed", slog.String("organization", org.String()), slog.Any("error", err))
		return Preview{}, err
	}
	return out, nil
}

// FlushPreviews drops every cached preview answer.
func (s *Service) FlushPreviews(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("exports: flush previews: %w", err)
	}
	return nil
}

// Tabular renders one flat dataset as CSV or XLSX.
func (s *Service) Tabular(ctx context.Context, org uuid.UUID, ds Dataset, p Period, format Format) (Export, error) {
	start := time.Now()
	kind := KindCSV
	if format == FormatXLSX {
		kind = KindXLSX
	}
	export, err := s.tabular(ctx, org, ds, p, format)
	s.observe(kind, err, export.Lines, start)
	if err != nil {
		s.logger.Error("tabular export failed",
			slog.String("organization", org.String()),
			slog.String("dataset", string(ds)),
			slog.String("format", string(format)),
			slog.Any("error", err))
		return Export{}, err
	}
	return export, nil
}

func (s *Service) tabular(ctx context.Context, org uuid.UUID, ds Dataset, p Period, format Format) (Export, error) {
	table, err := s.repo.Dataset(ctx, org, ds, p.From, p.To)
	if err != nil {
		return Export{}, err
	}
	switch format {
	case FormatCSV, "":
		content, err := tabular.CSV(table)
		if err != nil {
			return Export{}, err
		}
		return Export{Filename: tabular.CSVFilename(table), ContentType: tabular.CSVContentType, Content: content, Lines: table.Len()}, nil
	case FormatXLSX:
		content, err := tabular.XLSX(table)
		if err != nil {
			return Export{}, err
		}
		return Export{Filename: tabular.XLSXFilename(table), ContentType: tabular.XLSXContentType, Content: content, Lines: table.Len()}, nil
	default:
		return Export{}, fmt.Errorf("exports: unknown format %q", format)
	}
}

func (s *Service) observe(kind string, err error, lines int, start time.Time) {
	if s.observer == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.observer.ObserveExport(kind, outcome, lines, time.Since(start))
}
