// Package cli implements the ledgerctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nexacrm/ledgerd/internal/exports"
	"github.com/nexacrm/ledgerd/internal/exports/fec"
	"github.com/nexacrm/ledgerd/jobs"
)

// Exporter is the export contract driven by the CLI.
type Exporter interface {
	ExportFEC(ctx context.Context, req exports.Request) (exports.Export, error)
	Preview(ctx context.Context, org uuid.UUID, p exports.Period) (exports.Preview, error)
	Tabular(ctx context.Context, org uuid.UUID, ds exports.Dataset, p exports.Period, format exports.Format) (exports.Export, error)
	FlushPreviews(ctx context.Context) error
}

// Queue submits and inspects background exports.
type Queue interface {
	EnqueueFECExport(ctx context.Context, payload jobs.FECExportPayload) (string, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
}

// Deps builds command dependencies on first use, so that help output and
// flag errors never touch PostgreSQL or Redis.
type Deps struct {
	Exports func(ctx context.Context) (Exporter, error)
	Queue   func(ctx context.Context) (Queue, error)
}

func (d Deps) exporter(ctx context.Context) (Exporter, error) {
	if d.Exports == nil {
		return nil, errors.New("exports are not configured")
	}
	return d.Exports(ctx)
}

func (d Deps) queue(ctx context.Context) (Queue, error) {
	if d.Queue == nil {
		return nil, errors.New("job queue is not configured")
	}
	return d.Queue(ctx)
}

// NewRootCommand assembles the ledgerctl command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the ledgerd accounting exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newExportCommand(deps),
		newPreviewCommand(deps),
		newEnqueueCommand(deps),
		newQueueCommand(deps),
		newCacheCommand(deps),
	)
	return root
}

// fecFlags are shared by the commands producing a FEC file.
type fecFlags struct {
	org      string
	from     string
	to       string
	siren    string
	encoding string
}

func (f *fecFlags) register(cmd *cobra.Command) {
	f.registerPeriod(cmd)
	cmd.Flags().StringVar(&f.siren, "siren", "", "9 digit SIREN used in the file name")
	cmd.Flags().StringVar(&f.encoding, "encoding", "utf-8", "utf-8 or iso-8859-15")
}

func (f *fecFlags) registerPeriod(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.org, "org", "", "organization id (UUID)")
	cmd.Flags().StringVar(&f.from, "from", "", "first day of the period, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last day of the period, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (f *fecFlags) scope() (uuid.UUID, exports.Period, error) {
	org, err := parseOrg(f.org)
	if err != nil {
		return uuid.Nil, exports.Period{}, err
	}
	period, err := exports.ParsePeriod(f.from, f.to)
	if err != nil {
		return uuid.Nil, exports.Period{}, err
	}
	return org, period, nil
}

func (f *fecFlags) request() (exports.Request, error) {
	org, period, err := f.scope()
	if err != nil {
		return exports.Request{}, err
	}
	siren := strings.TrimSpace(f.siren)
	if err := exports.ValidateSIREN(siren); err != nil {
		return exports.Request{}, err
	}
	enc, err := fec.ParseEncoding(f.encoding)
	if err != nil {
		return exports.Request{}, err
	}
	return exports.Request{Organization: org, Period: period, SIREN: siren, Encoding: enc}, nil
}

func parseOrg(value string) (uuid.UUID, error) {
	org, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil || org == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--org must be a non-nil UUID, got %q", value)
	}
	return org, nil
}
