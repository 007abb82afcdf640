package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milops/convoyd/app"
	"github.com/milops/convoyd/config"
	"github.com/milops/convoyd/core/model"
)

var (
	evalName     string
	evalRoute    string
	evalVehicles int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a one-shot evaluation for a synthetic convoy",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalName, "name", "WATER RESUPPLY 1", "convoy name, drives cargo inference")
	evaluateCmd.Flags().StringVar(&evalRoute, "route", "msr-local", "route reference")
	evaluateCmd.Flags().IntVar(&evalVehicles, "vehicles", 6, "vehicle count")
	rootCmd.AddCommand(evaluateCmd)
}

// runEvaluate exercises the full pipeline without a broker: the static
// rung answers when no intel is available.
func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Feed.Enabled = false
	cfg.API.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	convoy := model.Convoy{
		ID:       "cli-adhoc",
		Name:     evalName,
		Vehicles: evalVehicles,
		RouteID:  evalRoute,
		Crew:     model.CrewRested,
	}
	if err := svc.Engine.EnqueueConvoy(convoy); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	rec, err := svc.Engine.Evaluate(context.Background(), convoy.ID)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
