package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"leveragePool/internal/model"
)

var ErrPoolAddress = errors.New("pool address is required")

// PoolConfig holds the creation parameters of a pool. They only matter when
// no snapshot exists yet.
type PoolConfig struct {
	Address           string
	XAsset            string
	YAsset            string
	ShareCurve        string
	Params            model.Params
	ChallengingPeriod time.Duration
	BounceFee         int64
}

// newViper merges config file, environment variables and flags. Environment
// variables use the POOL_ prefix with '-' and '.' mapped to '_', so
// pool.swap-fee is POOL_POOL_SWAP_FEE.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setPoolDefaults(v)
	v.SetDefault("log-level", "info")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func setPoolDefaults(v *viper.Viper) {
	d := model.DefaultParams()
	v.SetDefault("pool.x-asset", "base")
	v.SetDefault("pool.share-curve", "linear")
	v.SetDefault("pool.swap-fee", d.SwapFee)
	v.SetDefault("pool.exit-fee", d.ExitFee)
	v.SetDefault("pool.leverage-profit-tax", d.LeverageProfitTax)
	v.SetDefault("pool.arb-profit-tax", d.ArbProfitTax)
	v.SetDefault("pool.base-interest-rate", d.BaseInterestRate)
	v.SetDefault("pool.alpha", d.Alpha)
	v.SetDefault("pool.pool-leverage", d.PoolLeverage)
	v.SetDefault("pool.mid-price", 0.0)
	v.SetDefault("pool.price-deviation", 0.0)
	v.SetDefault("pool.challenging-period", 72*time.Hour)
	v.SetDefault("pool.bounce-fee", int64(0))
}

func loadPool(v *viper.Viper) PoolConfig {
	return PoolConfig{
		Address:    strings.TrimSpace(v.GetString("pool.address")),
		XAsset:     v.GetString("pool.x-asset"),
		YAsset:     v.GetString("pool.y-asset"),
		ShareCurve: v.GetString("pool.share-curve"),
		Params: model.Params{
			SwapFee:           v.GetFloat64("pool.swap-fee"),
			ExitFee:           v.GetFloat64("pool.exit-fee"),
			LeverageProfitTax: v.GetFloat64("pool.leverage-profit-tax"),
			ArbProfitTax:      v.GetFloat64("pool.arb-profit-tax"),
			BaseInterestRate:  v.GetFloat64("pool.base-interest-rate"),
			Alpha:             v.GetFloat64("pool.alpha"),
			PoolLeverage:      v.GetFloat64("pool.pool-leverage"),
			MidPrice:          v.GetFloat64("pool.mid-price"),
			PriceDeviation:    v.GetFloat64("pool.price-deviation"),
		},
		ChallengingPeriod: v.GetDuration("pool.challenging-period"),
		BounceFee:         v.GetInt64("pool.bounce-fee"),
	}
}
