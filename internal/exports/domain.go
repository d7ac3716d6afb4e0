// Package exports produces the accounting exports of an organization: the
// FEC ledger file, its preview and the flat tabular datasets.
package exports

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexacrm/ledgerd/internal/accounting/shared"
	"github.com/nexacrm/ledgerd/internal/exports/fec"
	"github.com/nexacrm/ledgerd/internal/platform/httpx"
)

// DateLayout is the layout of every date accepted on input.
const DateLayout = "2006-01-02"

// Open bounds used by tabular exports when no range is given.
var (
	OpenFrom = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	OpenTo   = time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
)

var sirenPattern = regexp.MustCompile(`^[0-9]{9}$`)

// Period is an inclusive date range.
type Period struct {
	From time.Time
	To   time.Time
}

// ParsePeriod parses both bounds and checks their order. Missing bounds are
// a validation error.
func ParsePeriod(from, to string) (Period, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return Period{}, fmt.Errorf("from_date and to_date are required: %w", httpx.ErrValidation)
	}
	return parseBounds(from, to)
}

// ParseOpenPeriod is ParsePeriod with open bounds defaulting to OpenFrom and OpenTo.
func ParseOpenPeriod(from, to string) (Period, error) {
	if strings.TrimSpace(from) == "" {
		from = OpenFrom.Format(DateLayout)
	}
	if strings.TrimSpace(to) == "" {
		to = OpenTo.Format(DateLayout)
	}
	return parseBounds(from, to)
}

func parseBounds(from, to string) (Period, error) {
	start, err := time.Parse(DateLayout, strings.TrimSpace(from))
	if err != nil {
		return Period{}, fmt.Errorf("from_date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	end, err := time.Parse(DateLayout, strings.TrimSpace(to))
	if err != nil {
		return Period{}, fmt.Errorf("to_date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("from_date must not be after to_date: %w: %w", shared.ErrInvalidPeriod, httpx.ErrValidation)
	}
	return Period{From: start, To: end}, nil
}

// ValidateSIREN accepts an empty value or exactly nine digits.
func ValidateSIREN(siren string) error {
	if siren == "" || sirenPattern.MatchString(siren) {
		return nil
	}
	return fmt.Errorf("siren must be 9 digits: %w", httpx.ErrValidation)
}

// Request describes one FEC export run.
type Request struct {
	Organization uuid.UUID
	Period       Period
	SIREN        string
	Encoding     fec.Encoding
}

// Export is a fully rendered file ready to be served or stored.
type Export struct {
	Filename    string
	ContentType string
	Content     []byte
	Lines       int
}

// Bucket is the count and amount total of one source type.
type Bucket struct {
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

// Summary groups the buckets of every source type.
type Summary struct {
	Invoices    Bucket `json:"invoices"`
	CreditNotes Bucket `json:"credit_notes"`
	Payments    Bucket `json:"payments"`
	Expenses    Bucket `json:"expenses"`
}

// PeriodDTO echoes the requested range.
type PeriodDTO struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Preview is the JSON answer of a FEC preview.
type Preview struct {
	Period         PeriodDTO `json:"period"`
	Summary        Summary   `json:"summary"`
	EstimatedLines int64     `json:"estimated_lines"`
}

// Lines per document assumed by the preview estimate. Documents without VAT
// produce one line less, so the estimate is an upper bound for them.
const (
	linesPerInvoice    = 3
	linesPerCreditNote = 3
	linesPerPayment    = 2
	linesPerExpense    = 3
)

// EstimateLines applies the fixed per document multipliers.
func (s Summary) EstimateLines() int64 {
	return s.Invoices.Count*linesPerInvoice +
		s.CreditNotes.Count*linesPerCreditNote +
		s.Payments.Count*linesPerPayment +
		s.Expenses.Count*linesPerExpense
}

// Dataset names a tabular export.
type Dataset string

// Supported datasets.
const (
	DatasetInvoices Dataset = "invoices"
	DatasetPayments Dataset = "payments"
	DatasetExpenses Dataset = "expenses"
)

// ParseDataset validates a dataset name.
func ParseDataset(value string) (Dataset, error) {
	switch ds := Dataset(value); ds {
	case DatasetInvoices, DatasetPayments, DatasetExpenses:
		return ds, nil
	default:
		return "", fmt.Errorf("unsupported export type %q, valid types: invoices, payments, expenses: %w", value, httpx.ErrValidation)
	}
}

// Format selects the tabular file format.
type Format string

// Supported tabular formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)
