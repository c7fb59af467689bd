package config

import "fmt"

// OutputConfig controls where results land.
type OutputConfig struct {
	// PlotDir receives the two coefficient figures.
	PlotDir string `json:"plot_dir"`
	// MassGrid is the number of grid points for the population trend band.
	MassGrid int `json:"mass_grid"`
	// DatasetPath, when set, receives the flattened dataset as JSON.
	DatasetPath string `json:"dataset_path"`
	// SummaryPath, when set, receives the fit summary as JSON.
	SummaryPath string `json:"summary_path"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.PlotDir == "" {
		c.PlotDir = "plots"
	}
	if c.MassGrid == 0 {
		c.MassGrid = 50
	}
}

// Validate checks mandatory fields.
func (c OutputConfig) Validate() error {
	if c.PlotDir == "" {
		return fmt.Errorf("plot_dir is required")
	}
	if c.MassGrid < 2 {
		return fmt.Errorf("mass_grid must be at least 2, got %d", c.MassGrid)
	}
	return nil
}
