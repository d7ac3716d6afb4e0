package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nexacrm/ledgerd/internal/exports"
	jobmetrics "github.com/nexacrm/ledgerd/internal/jobs"
	"github.com/nexacrm/ledgerd/internal/platform/storage"
)

// Exporter renders FEC files.
type Exporter interface {
	ExportFEC(ctx context.Context, req exports.Request) (exports.Export, error)
}

// FECExportJob renders the requested ledger and archives it.
type FECExportJob struct {
	Exports Exporter
	Store   storage.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewFECExportJob wires dependencies for the export handler.
func NewFECExportJob(exporter Exporter, store storage.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *FECExportJob {
	return &FECExportJob{Exports: exporter, Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskFECExport tasks. Malformed payloads are not retried.
func (j *FECExportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Exports == nil || j.Store == nil {
		return errors.New("fec export: handler not configured")
	}
	var payload FECExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("fec export: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	req, err := payload.Request()
	if err != nil {
		return fmt.Errorf("fec export: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskFECExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("organization", payload.Organization.String()),
		slog.String("from", payload.FromDate),
		slog.String("to", payload.ToDate),
	)

	export, err := j.Exports.ExportFEC(ctx, req)
	if err != nil {
		logger.Error("fec export job failed", slog.Any("error", err))
		return err
	}
	location, err := j.Store.Put(ctx, ArchiveKey(payload.Organization, export.Filename), export.ContentType, export.Content)
	if err != nil {
		logger.Error("fec archive failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddStoredBytes(j.Store.Driver(), len(export.Content))
	logger.Info("fec export archived",
		slog.String("location", location),
		slog.Int("lines", export.Lines))
	return nil
}

func (j *FECExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
