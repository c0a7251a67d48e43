package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadReplayDefaults(t *testing.T) {
	t.Setenv("POOL_POOL_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("POOL_POOL_Y_ASSET", "0xusd")

	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flags.Uint64("batch-size", 500, "")
	if err := flags.Parse([]string{"--batch-size", "25"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadReplay("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 25 {
		t.Fatalf("flag not applied: %d", cfg.BatchSize)
	}
	if cfg.Pool.XAsset != "base" || cfg.Pool.YAsset != "0xusd" {
		t.Fatalf("unexpected assets: %+v", cfg.Pool)
	}
	if cfg.Pool.Params.Alpha != 0.5 || cfg.Pool.Params.PoolLeverage != 1 {
		t.Fatalf("unexpected params: %+v", cfg.Pool.Params)
	}
	if cfg.Pool.ChallengingPeriod != 72*time.Hour {
		t.Fatalf("unexpected challenging period: %v", cfg.Pool.ChallengingPeriod)
	}
	if !cfg.CheckpointEnabled || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadReplayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.yaml")
	data := []byte(`
pool:
  address: "0x00000000000000000000000000000000000000bb"
  y-asset: usd
  alpha: 0.8
  pool-leverage: 5
  swap-fee: 0.01
in: triggers.jsonl
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadReplay(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Input != "triggers.jsonl" {
		t.Fatalf("unexpected input: %q", cfg.Input)
	}
	p := cfg.Pool.Params
	if p.Alpha != 0.8 || p.PoolLeverage != 5 || p.SwapFee != 0.01 || p.ExitFee != 0.005 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestLoadReplayRequiresAddress(t *testing.T) {
	if _, err := LoadReplay("", nil); !errors.Is(err, ErrPoolAddress) {
		t.Fatalf("expected ErrPoolAddress, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cases := map[string]int64{
		"":                     1_700_000_000,
		"1700003600":           1_700_003_600,
		"2023-11-14T22:13:20Z": 1_700_000_000,
	}
	for in, want := range cases {
		got, err := ParseTimestamp(in, now)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %d want %d", in, got, want)
		}
	}
	if _, err := ParseTimestamp("yesterday", now); err == nil {
		t.Fatalf("expected error for free text")
	}
}
