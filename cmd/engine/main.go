package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobscrape-engine/internal/config"
	"jobscrape-engine/internal/logging"
)

var (
	cfgPath   string
	cfg       config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Job postings aggregator",
	Long:  "Scrapes configured job boards for keywords, deduplicates postings into one corpus and serves it over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := config.Validate(c); err != nil {
			return err
		}
		cfg = c

		closer, err := logging.Init(cfg.Log)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./config.yml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
