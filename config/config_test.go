package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `fleet:
  vessels: 3
  masses: [1.0, 2.0, 3.0]
  counts: [5, 5, 5]
  seed: 42
truth:
  alpha0: 18.6
  alpha1: 9.0
  sigma_a: 1.0
  beta0: 0.45
  beta1: 1.05
  sigma_b: 0.2
  sigma_obs: 5.0
sampler:
  chains: 2
  iterations: 400
  warmup: 200
  seed: 7
metrics:
  prometheus_enabled: false
output:
  plot_dir: "out"
  mass_grid: 25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"vessels", cfg.Fleet.Vessels, 3},
		{"mass[1]", cfg.Fleet.Masses[1], 2.0},
		{"fleet seed", cfg.Fleet.Seed, int64(42)},
		{"alpha0", cfg.Truth.Alpha0, 18.6},
		{"sigma_obs", cfg.Truth.SigmaObs, 5.0},
		{"chains", cfg.Sampler.Chains, 2},
		{"iterations", cfg.Sampler.Iterations, 400},
		{"plot dir", cfg.Output.PlotDir, "out"},
		{"mass grid", cfg.Output.MassGrid, 25},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `fleet:
  vessels: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Truth != DefaultTruth() {
		t.Errorf("expected default truth params, got %+v", cfg.Truth)
	}
	if cfg.Sampler.Chains != 4 || cfg.Sampler.Iterations != 2000 || cfg.Sampler.Warmup != 1000 {
		t.Errorf("unexpected sampler defaults: %+v", cfg.Sampler)
	}
	if cfg.Fleet.Covariates.SpeedMinKts != 5 || cfg.Fleet.Covariates.SpeedMaxKts != 15 {
		t.Errorf("unexpected covariate defaults: %+v", cfg.Fleet.Covariates)
	}
	if cfg.Output.PlotDir != "plots" || cfg.Output.MassGrid != 50 {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `fleet:
  vessels: 2
`)
	t.Setenv("PROPFIT_SAMPLER__CHAINS", "8")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Sampler.Chains != 8 {
		t.Errorf("env override ignored: chains=%d", cfg.Sampler.Chains)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"negative scale", "truth:\n  alpha0: 1.0\n  sigma_obs: -1.0\n"},
		{"mass count mismatch", "fleet:\n  vessels: 3\n  masses: [1.0, 2.0]\n"},
		{"zero count", "fleet:\n  vessels: 1\n  masses: [1.0]\n  counts: [0]\n"},
		{"warmup too large", "sampler:\n  iterations: 100\n  warmup: 100\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.data)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestFleetResolve(t *testing.T) {
	cfg := FleetConfig{Vessels: 5, Seed: 3}
	cfg.SetDefaults()
	m1, c1 := cfg.Resolve()
	m2, c2 := cfg.Resolve()
	if len(m1) != 5 || len(c1) != 5 {
		t.Fatalf("expected 5 resolved vessels, got %d/%d", len(m1), len(c1))
	}
	for i := range m1 {
		if m1[i] != m2[i] || c1[i] != c2[i] {
			t.Fatalf("resolve not deterministic at %d", i)
		}
		if m1[i] < cfg.MassMinGT || m1[i] > cfg.MassMaxGT {
			t.Fatalf("mass %g outside range", m1[i])
		}
		if c1[i] < cfg.ObsMin || c1[i] > cfg.ObsMax {
			t.Fatalf("count %d outside range", c1[i])
		}
	}
}
