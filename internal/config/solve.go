package config

import "github.com/spf13/pflag"

// SolveConfig holds configuration for the solve command.
type SolveConfig struct {
	QuoteConfig
	Tolerance     float64
	MaxIterations int
}

// LoadSolve merges config file, environment variables, and flags into SolveConfig.
func LoadSolve(cfgFile string, flags *pflag.FlagSet) (SolveConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"snapshot":       "./data/snapshot.json",
		"tolerance":      1e-9,
		"max-iterations": 200,
	})
	if err != nil {
		return SolveConfig{}, err
	}
	return SolveConfig{
		QuoteConfig:   loadQuote(v),
		Tolerance:     v.GetFloat64("tolerance"),
		MaxIterations: v.GetInt("max-iterations"),
	}, nil
}
