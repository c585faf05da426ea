package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ecobuild",
	Short: "Environmental impact assessment engine for construction projects",
	Long: "Scores proposed construction projects for air, water, land, waste and noise impact " +
		"against city pollution baselines, checks proximity to sensitive zones, analyses DXF " +
		"blueprints, and serves the same operations over HTTP.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
