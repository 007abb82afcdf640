package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/milops/convoyd/config"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Queue related commands",
}

var queueLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List open movement requests from a running service",
	RunE:  runQueueLs,
}

func init() {
	queueCmd.AddCommand(queueLsCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost" + cfg.API.Addr + "/api/dispatch/queue")
	if err != nil {
		return fmt.Errorf("query service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	return nil
}
