package main

import (
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runWait time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scrape over all sites and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := buildEngine(ctx, cfg, zap.L(), runWait)
		if err != nil {
			return err
		}
		defer e.Close()

		sum, err := e.svc.TriggerRun(ctx, "", true)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}

func init() {
	runCmd.Flags().DurationVar(&runWait, "wait", 2*time.Minute, "how long to wait for a run already in progress")
	rootCmd.AddCommand(runCmd)
}
