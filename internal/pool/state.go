package pool

import (
	"fmt"
	"math"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"leveragePool/internal/curve"
	"leveragePool/internal/interest"
	"leveragePool/internal/model"
	"leveragePool/internal/shares"
)

// SharesAssetID derives the id of the LP share token of a pool.
func SharesAssetID(pool common.Address) model.AssetID {
	return model.AssetID(crypto.Keccak256Hash(pool.Bytes(), []byte("lp_shares")).Hex())
}

// LeveragedAssetID derives the id of the token of a leverage bucket.
func LeveragedAssetID(pool common.Address, bucketKey string) model.AssetID {
	return model.AssetID(crypto.Keccak256Hash(pool.Bytes(), []byte("leveraged_"+bucketKey)).Hex())
}

func poolLeverage(params model.Params) float64 {
	if params.PoolLeverage < 1 {
		return 1
	}
	return params.PoolLeverage
}

// invariantOf is linear shares times coef, the invariant the range shifts
// are derived from.
func invariantOf(st *model.PoolState) float64 {
	return float64(st.Shares.Linear) * st.Shares.Coef
}

func curveOf(st *model.PoolState) curve.Curve {
	return curve.New(st.Params, invariantOf(st))
}

func priceOf(st *model.PoolState) (float64, error) {
	if st.Balances.Xn <= 0 && st.Balances.Yn <= 0 {
		return 0, curve.ErrEmptyPool
	}
	p := curveOf(st).Price(st.Balances)
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("%w: price %v", curve.ErrEmptyPool, p)
	}
	return p, nil
}

// rederive recomputes gross balances of a leveraged pool from its nets at
// price p.
func rederive(st *model.PoolState, p float64) error {
	b := st.Balances
	if b.Xn < 0 || b.Yn < 0 {
		return fmt.Errorf("%w: xn=%v yn=%v", ErrNegativeBalance, b.Xn, b.Yn)
	}
	lev := poolLeverage(st.Params)
	if lev == 1 {
		st.Balances.X, st.Balances.Y = b.Xn, b.Yn
		return nil
	}
	st.Balances = curve.GrossAtPrice(b.Xn, b.Yn, p, lev, st.Params.Alpha)
	return nil
}

// creditLP hands fees and other income to the liquidity providers: to
// profits for an unleveraged pool, to the net balances otherwise.
func creditLP(st *model.PoolState, add model.Pair) error {
	if add.X == 0 && add.Y == 0 {
		return nil
	}
	if poolLeverage(st.Params) == 1 {
		st.Profits.X += add.X
		st.Profits.Y += add.Y
		return nil
	}
	p, err := priceOf(st)
	if err != nil {
		return err
	}
	st.Balances.Xn += add.X
	st.Balances.Yn += add.Y
	return rederive(st, p)
}

// accrue charges interest on the leverage buckets up to now. It is a no-op
// when called again with the same now.
func accrue(st *model.PoolState, now int64) error {
	last := st.Recent.LastTs
	if now <= last {
		return nil
	}
	st.Recent.LastTs = now
	if last == 0 || st.Params.BaseInterestRate <= 0 || len(st.Leveraged) == 0 {
		return nil
	}
	p, err := priceOf(st)
	if err != nil {
		// empty pool, nothing is lent
		return nil
	}
	flows, buckets, err := interest.Accrue(st.Leveraged, p, st.Params.BaseInterestRate, now-last)
	if err != nil {
		return err
	}
	st.Leveraged = buckets
	return creditLP(st, flows)
}

func book(st *model.PoolState) shares.Book {
	p, _ := priceOf(st)
	return shares.Book{
		Params:   st.Params,
		Balances: st.Balances,
		Profits:  st.Profits,
		Shares:   st.Shares,
		Price:    p,
	}
}

func setBook(st *model.PoolState, b shares.Book) {
	st.Balances = b.Balances
	st.Profits = b.Profits
	st.Shares = b.Shares
}

func sortPayments(payments []model.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].Asset < payments[j].Asset
	})
}
