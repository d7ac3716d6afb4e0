package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexacrm/ledgerd/internal/exports"
	"github.com/nexacrm/ledgerd/jobs"
)

func newEnqueueCommand(deps Deps) *cobra.Command {
	var flags fecFlags
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a FEC export for archiving by the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			q, err := deps.queue(cmd.Context())
			if err != nil {
				return err
			}
			id, err := q.EnqueueFECExport(cmd.Context(), jobs.FECExportPayload{
				Organization: req.Organization,
				FromDate:     req.Period.From.Format(exports.DateLayout),
				ToDate:       req.Period.To.Format(exports.DateLayout),
				SIREN:        req.SIREN,
				Encoding:     string(req.Encoding),
				RequestedAt:  time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", id)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newQueueCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the background export queue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the task counts of the export queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := deps.queue(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := q.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
		},
	})
	return cmd
}
