package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/milops/convoyd/config"
	"github.com/milops/convoyd/core/audit"
	"github.com/milops/convoyd/pkg/export"
)

var (
	logsFormat string
	logsConvoy string
	logsKind   string
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Decision log commands",
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the decision log to stdout",
	RunE:  runLogsExport,
}

func init() {
	logsExportCmd.Flags().StringVar(&logsFormat, "format", "csv", "output format: csv or json")
	logsExportCmd.Flags().StringVar(&logsConvoy, "convoy", "", "filter by convoy id")
	logsExportCmd.Flags().StringVar(&logsKind, "kind", "", "filter by record kind")
	logsExportCmd.Flags().StringVar(&logsSince, "since", "", "only records after this RFC3339 timestamp")
	logsCmd.AddCommand(logsExportCmd)
	rootCmd.AddCommand(logsCmd)
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var store audit.Store
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err = audit.NewSQLiteStore(cfg.Audit.Path)
	default:
		store, err = audit.NewJSONLStore(cfg.Audit.Path)
	}
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := audit.Query{ConvoyID: logsConvoy, Kind: logsKind}
	if logsSince != "" {
		start, err := time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		q.Start = start
	}
	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query decision log: %w", err)
	}

	switch logsFormat {
	case "json":
		return export.WriteJSON(os.Stdout, records)
	case "csv":
		return export.WriteCSV(os.Stdout, records)
	default:
		return fmt.Errorf("unknown format %q", logsFormat)
	}
}
