package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QuoteConfig holds configuration for the read-only commands.
type QuoteConfig struct {
	Pool     PoolConfig
	Snapshot string
	PGDSN    string
	At       string
	LogLevel string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"snapshot": "./data/snapshot.json",
	})
	if err != nil {
		return QuoteConfig{}, err
	}
	return loadQuote(v), nil
}

func loadQuote(v *viper.Viper) QuoteConfig {
	return QuoteConfig{
		Pool:     loadPool(v),
		Snapshot: v.GetString("snapshot"),
		PGDSN:    v.GetString("pg-dsn"),
		At:       v.GetString("at"),
		LogLevel: v.GetString("log-level"),
	}
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339). An
// empty value means now.
func ParseTimestamp(input string, now time.Time) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now.Unix(), nil
	}

	if isNumeric(input) {
		return strconv.ParseInt(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return tm.Unix(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
