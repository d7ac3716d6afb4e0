package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nexacrm/ledgerd/internal/exports"
)

func newExportCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render an export file",
	}
	cmd.AddCommand(newExportFECCommand(deps), newExportTableCommand(deps))
	return cmd
}

func newExportFECCommand(deps Deps) *cobra.Command {
	var (
		flags  fecFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "fec",
		Short: "Write the Fichier des Écritures Comptables of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			svc, err := deps.exporter(cmd.Context())
			if err != nil {
				return err
			}
			export, err := svc.ExportFEC(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeExport(cmd, export, output)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file or directory, - for stdout")
	return cmd
}

func newExportTableCommand(deps Deps) *cobra.Command {
	var (
		org, from, to, format, output string
	)
	cmd := &cobra.Command{
		Use:       "table <invoices|payments|expenses>",
		Short:     "Write a flat CSV or XLSX dataset",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(exports.DatasetInvoices), string(exports.DatasetPayments), string(exports.DatasetExpenses)},
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseOrg(org)
			if err != nil {
				return err
			}
			ds, err := exports.ParseDataset(args[0])
			if err != nil {
				return err
			}
			f := exports.Format(format)
			if f != exports.FormatCSV && f != exports.FormatXLSX {
				return fmt.Errorf("--format must be csv or xlsx, got %q", format)
			}
			period, err := exports.ParseOpenPeriod(from, to)
			if err != nil {
				return err
			}
			svc, err := deps.exporter(cmd.Context())
			if err != nil {
				return err
			}
			export, err := svc.Tabular(cmd.Context(), orgID, ds, period, f)
			if err != nil {
				return err
			}
			return writeExport(cmd, export, output)
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id (UUID)")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default 1900-01-01)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default 2099-12-31)")
	cmd.Flags().StringVar(&format, "format", string(exports.FormatCSV), "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file or directory, - for stdout")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newPreviewCommand(deps Deps) *cobra.Command {
	var flags fecFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the document counts a FEC export would cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			org, period, err := flags.scope()
			if err != nil {
				return err
			}
			svc, err := deps.exporter(cmd.Context())
			if err != nil {
				return err
			}
			preview, err := svc.Preview(cmd.Context(), org, period)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(preview)
		},
	}
	flags.registerPeriod(cmd)
	return cmd
}

func newCacheCommand(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the preview cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Invalidate every cached preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := deps.exporter(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.FlushPreviews(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "preview cache flushed")
			return err
		},
	})
	return cmd
}

// writeExport stores the export under output. An empty output writes the
// suggested file name in the working directory; a directory receives the
// suggested file name.
func writeExport(cmd *cobra.Command, export exports.Export, output string) error {
	if output == "-" {
		_, err := cmd.OutOrStdout().Write(export.Content)
		return err
	}
	dest := output
	if dest == "" {
		dest = export.Filename
	} else if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, export.Filename)
	}
	if err := os.WriteFile(dest, export.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", dest, len(export.Content))
	return err
}
