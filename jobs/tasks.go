package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nexacrm/ledgerd/internal/exports"
	"github.com/nexacrm/ledgerd/internal/exports/fec"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFECExport renders a FEC file and stores it in the archive.
	TaskFECExport = "exports:fec"
)

const fecExportMaxRetry = 3

// FECExportPayload describes one archived FEC export.
type FECExportPayload struct {
	Organization uuid.UUID `json:"organization"`
	FromDate     string    `json:"from_date"`
	ToDate       string    `json:"to_date"`
	SIREN        string    `json:"siren,omitempty"`
	Encoding     string    `json:"encoding,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Request validates the payload and converts it into an export request.
func (p FECExportPayload) Request() (exports.Request, error) {
	if p.Organization == uuid.Nil {
		return exports.Request{}, fmt.Errorf("jobs: organization required")
	}
	period, err := exports.ParsePeriod(p.FromDate, p.ToDate)
	if err != nil {
		return exports.Request{}, err
	}
	if err := exports.ValidateSIREN(p.SIREN); err != nil {
		return exports.Request{}, err
	}
	enc, err := fec.ParseEncoding(p.Encoding)
	if err != nil {
		return exports.Request{}, err
	}
	return exports.Request{Organization: p.Organization, Period: period, SIREN: p.SIREN, Encoding: enc}, nil
}

// ArchiveKey is the storage key of the rendered file.
func ArchiveKey(org uuid.UUID, filename string) string {
	return strings.Join([]string{"fec", org.String(), filename}, "/")
}

// NewFECExportTask constructs an Asynq task.
func NewFECExportTask(payload FECExportPayload) (*asynq.Task, error) {
	if _, err := payload.Request(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFECExport, data, asynq.MaxRetry(fecExportMaxRetry)), nil
}
