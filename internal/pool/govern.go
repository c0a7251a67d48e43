package pool

import (
	"fmt"

	"leveragePool/internal/command"
	"leveragePool/internal/curve"
	"leveragePool/internal/governance"
	"leveragePool/internal/model"
)

func (x *execution) vote(c command.Vote) error {
	if err := governance.Validate(c.Param, c.Value, x.st.Params.RangeMode()); err != nil {
		return err
	}
	if err := governance.Vote(&x.st.Governance, x.trig.Address, c.Param, c.Value, c.Stake, x.trig.Ts); err != nil {
		return err
	}
	leader := x.st.Governance.Leaders[c.Param]
	x.vars["leader"] = leader.Value
	x.vars["support"] = x.st.Governance.Support[c.Param][governance.FormatValue(c.Value)]
	return nil
}

func (x *execution) removeVote(c command.RemoveVote) error {
	if err := governance.RemoveVote(&x.st.Governance, x.trig.Address, c.Param, x.trig.Ts); err != nil {
		return err
	}
	if leader, ok := x.st.Governance.Leaders[c.Param]; ok {
		x.vars["leader"] = leader.Value
	}
	return nil
}

func (x *execution) withdraw() error {
	amount, err := governance.Withdraw(&x.st.Governance, x.trig.Address)
	if err != nil {
		return err
	}
	x.pay(x.st.Shares.AssetID, amount)
	x.vars["withdrawn"] = amount
	return nil
}

func (x *execution) commit(c command.Commit) error {
	current, err := governance.Get(x.st.Params, c.Param)
	if err != nil {
		return err
	}
	v, err := governance.Commit(&x.st.Governance, c.Param, current, x.trig.Ts, x.challengingPeriod)
	if err != nil {
		return err
	}
	if err := governance.Validate(c.Param, v, x.st.Params.RangeMode()); err != nil {
		return err
	}
	if err := applyParam(x.st, c.Param, v); err != nil {
		return err
	}
	x.vars["committed"] = c.Param
	x.vars["value"] = v
	return nil
}

// applyParam sets a parameter and rebalances the reserves so that the price
// does not move.
func applyParam(st *model.PoolState, name string, v float64) error {
	next := st.Params
	if err := governance.Set(&next, name, v); err != nil {
		return err
	}
	if !governance.AffectsCurve(name) || st.Shares.Linear == 0 {
		st.Params = next
		return nil
	}
	p, err := priceOf(st)
	if err != nil {
		return err
	}

	switch {
	case name == governance.PoolLeverage:
		return changeLeverage(st, next, p)
	case poolLeverage(st.Params) > 1:
		st.Params = next
		return rederive(st, p)
	}

	// unleveraged: put the reserves on the new curve with the same invariant
	s := invariantOf(st)
	nb, err := curve.New(next, s).AtInvariant(s, p)
	if err != nil {
		return fmt.Errorf("%s=%v: %w", name, v, err)
	}
	st.Profits.X += st.Balances.Xn - nb.Xn
	st.Profits.Y += st.Balances.Yn - nb.Yn
	st.Balances = nb
	st.Params = next
	return nil
}

func changeLeverage(st *model.PoolState, next model.Params, p float64) error {
	from, to := poolLeverage(st.Params), poolLeverage(next)
	if from == 1 && to > 1 {
		st.Balances.Xn += st.Profits.X
		st.Balances.Yn += st.Profits.Y
		st.Profits = model.Pair{}
	}
	if to > 1 {
		st.Params = next
		return rederive(st, p)
	}
	// back to 1: the leveraged depth divided by the old leverage is what
	// stays in the curve, the rest becomes profit
	nx, ny := st.Balances.X/from, st.Balances.Y/from
	st.Profits.X += st.Balances.Xn - nx
	st.Profits.Y += st.Balances.Yn - ny
	st.Balances = model.Balances{X: nx, Y: ny, Xn: nx, Yn: ny}
	st.Params = next
	return nil
}
