package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marinelab/propfit/app"
	"github.com/marinelab/propfit/config"
	"github.com/marinelab/propfit/core/model"
	"github.com/marinelab/propfit/infra/plot"
)

var fitCmd = &cobra.Command{
	Use:   "fit <dataset.json>",
	Short: "Fit a previously generated dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runFit,
}

func init() {
	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	var fd model.FitData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}
	if err := fd.Validate(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	sum, res, err := svc.Fit(ctx, fd)
	if err != nil {
		return err
	}
	if _, err := plot.SaveAll(sum, cfg.Output.PlotDir); err != nil {
		return fmt.Errorf("plots: %w", err)
	}

	out, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "max split-Rhat: %.3f\n", res.MaxRhat())
	return err
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
