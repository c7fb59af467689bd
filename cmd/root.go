package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marinelab/propfit/app"
	"github.com/marinelab/propfit/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "propfit",
	Short: "Hierarchical Bayesian fit of vessel propulsion power",
	Long: `propfit generates a synthetic fleet of vessels, fits a two-level
Bayesian regression of propulsion power against speed and wind covariates,
and renders the posterior coefficient estimates.`,
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}
