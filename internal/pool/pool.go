// Package pool executes triggers against a single leveraged liquidity pool.
package pool

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"leveragePool/internal/command"
	"leveragePool/internal/governance"
	"leveragePool/internal/model"
	"leveragePool/internal/shares"
)

var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrPriceDirection      = errors.New("final price is on the wrong side of the current price")
	ErrNegativeFlow        = errors.New("trade would move funds in the wrong direction")
	ErrZeroOutput          = errors.New("output rounds to zero")
	ErrBelowMinOut         = errors.New("output is below min_out")
	ErrUnknownPosition     = errors.New("unknown position")
	ErrNotOwner            = errors.New("not the owner of the position")
	ErrPositionMismatch    = errors.New("position belongs to another leverage")
	ErrTokenUndefined      = errors.New("leveraged token is not defined yet")
	ErrAlreadyDefined      = errors.New("leveraged token is already defined")
	ErrInsufficientShares  = errors.New("not enough shares to sell")
	ErrNothingToAdd        = errors.New("no symmetric profits to add")
	ErrNegativeBalance     = errors.New("balance would become negative")
	ErrInvalidOwner        = errors.New("invalid new owner")
)

// Rejection is a bounced trigger. The pool state is left untouched and the
// payments in Refunds go back to the sender.
type Rejection struct {
	Reason  string
	Err     error
	Refunds []model.Payment
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Effects are the observable results of an accepted trigger.
type Effects struct {
	Payments []model.Payment
	Vars     map[string]any
}

// Options tune a pool instance.
type Options struct {
	Logger            *zap.Logger
	ChallengingPeriod int64
	// BounceFee is kept from every asset sent with a rejected trigger.
	BounceFee int64
}

// Pool owns the state of one pool instance. Calls must be serialized by the
// caller.
type Pool struct {
	state             model.PoolState
	ledger            shares.Ledger
	logger            *zap.Logger
	challengingPeriod int64
	bounceFee         int64
}

// NewState returns the state of a freshly created pool.
func NewState(address common.Address, xAsset, yAsset model.AssetID, params model.Params, shareCurve string) model.PoolState {
	if shareCurve == "" {
		shareCurve = shares.Linear{}.Name()
	}
	return model.PoolState{
		Address:    address,
		XAsset:     xAsset,
		YAsset:     yAsset,
		ShareCurve: shareCurve,
		Params:     params,
		Shares:     model.LPShares{Coef: 1, AssetID: SharesAssetID(address)},
	}
}

// New wraps state. The state is copied.
func New(state model.PoolState, opts Options) (*Pool, error) {
	if state.XAsset == "" || state.YAsset == "" || state.XAsset == state.YAsset {
		return nil, fmt.Errorf("pool needs two distinct reserve assets, got %q and %q", state.XAsset, state.YAsset)
	}
	transform, err := shares.ForName(state.ShareCurve)
	if err != nil {
		return nil, err
	}
	if err := validateParams(state.Params); err != nil {
		return nil, fmt.Errorf("pool params: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	period := opts.ChallengingPeriod
	if period <= 0 {
		period = governance.DefaultChallengingPeriod
	}

	st := state.Clone()
	if st.Shares.AssetID == "" {
		st.Shares.AssetID = SharesAssetID(st.Address)
	}
	if st.Shares.Coef == 0 {
		st.Shares.Coef = 1
	}
	return &Pool{
		state:             st,
		ledger:            shares.NewLedger(transform),
		logger:            logger.With(zap.String("pool", st.Address.Hex())),
		challengingPeriod: period,
		bounceFee:         opts.BounceFee,
	}, nil
}

// State returns a copy of the current state.
func (p *Pool) State() model.PoolState {
	return p.state.Clone()
}

func (p *Pool) assets() command.Assets {
	return command.Assets{X: p.state.XAsset, Y: p.state.YAsset, Shares: p.state.Shares.AssetID}
}

// Handle decodes and executes a trigger and turns the outcome into a
// response.
func (p *Pool) Handle(trig model.Trigger) model.Response {
	resp := model.Response{TriggerID: trig.ID, Address: trig.Address, Ts: trig.Ts}
	cmd, err := command.Decode(trig.Data, trig.Payments, p.assets())
	var effects Effects
	if err == nil {
		effects, err = p.Execute(trig, cmd)
	} else {
		err = p.reject(trig, err)
	}
	if err != nil {
		var rej *Rejection
		if !errors.As(err, &rej) {
			rej = p.reject(trig, err)
		}
		p.logger.Info("trigger rejected",
			zap.String("trigger", trig.ID),
			zap.String("from", trig.Address.Hex()),
			zap.String("reason", rej.Reason),
		)
		resp.Bounced = true
		resp.Error = rej.Reason
		resp.Payments = rej.Refunds
		return resp
	}
	resp.Vars = effects.Vars
	resp.Payments = effects.Payments
	return resp
}

// Execute runs cmd on behalf of trig. The state changes only when the
// returned error is nil; otherwise the error is a *Rejection.
func (p *Pool) Execute(trig model.Trigger, cmd command.Command) (Effects, error) {
	st := p.state.Clone()
	x := &execution{
		st:                &st,
		trig:              trig,
		ledger:            p.ledger,
		challengingPeriod: p.challengingPeriod,
		vars:              make(map[string]any),
		logger:            p.logger,
	}
	if err := x.run(cmd); err != nil {
		return Effects{}, p.reject(trig, fmt.Errorf("%s: %w", cmd.Name(), err))
	}
	if err := checkInvariants(&st); err != nil {
		return Effects{}, p.reject(trig, fmt.Errorf("%s: %w", cmd.Name(), err))
	}

	st.Holdings.X += float64(trig.Paid(st.XAsset))
	st.Holdings.Y += float64(trig.Paid(st.YAsset))
	for _, pay := range x.payments {
		switch pay.Asset {
		case st.XAsset:
			st.Holdings.X -= float64(pay.Amount)
		case st.YAsset:
			st.Holdings.Y -= float64(pay.Amount)
		}
	}
	p.state = st
	p.logger.Debug("trigger executed",
		zap.String("trigger", trig.ID),
		zap.String("command", cmd.Name()),
		zap.Int("payments", len(x.payments)),
	)
	return Effects{Payments: x.payments, Vars: x.vars}, nil
}

func (p *Pool) reject(trig model.Trigger, err error) *Rejection {
	rej := &Rejection{Reason: err.Error(), Err: err}
	for asset, amount := range trig.Payments {
		if refund := amount - p.bounceFee; refund > 0 {
			rej.Refunds = append(rej.Refunds, model.Payment{Asset: asset, Address: trig.Address, Amount: refund})
		}
	}
	sortPayments(rej.Refunds)
	return rej
}

func validateParams(params model.Params) error {
	rangeMode := params.RangeMode()
	for _, name := range governance.Names {
		v, _ := governance.Get(params, name)
		var err error
		switch name {
		case governance.MidPrice, governance.PriceDeviation:
			if !rangeMode {
				continue
			}
			err = governance.Validate(name, v, true)
		case governance.Alpha, governance.PoolLeverage:
			err = governance.Validate(name, v, false)
		default:
			err = governance.Validate(name, v, rangeMode)
		}
		if err != nil {
			return err
		}
	}
	if rangeMode && params.PoolLeverage != 1 {
		return fmt.Errorf("%w: range mode requires pool_leverage 1", governance.ErrInvalidValue)
	}
	return nil
}

const balanceTolerance = 1e-9

func checkInvariants(st *model.PoolState) error {
	b := st.Balances
	if b.Xn < 0 || b.Yn < 0 {
		return fmt.Errorf("%w: xn=%v yn=%v", ErrNegativeBalance, b.Xn, b.Yn)
	}
	if b.X < b.Xn*(1-balanceTolerance) || b.Y < b.Yn*(1-balanceTolerance) {
		return fmt.Errorf("%w: gross below net", ErrNegativeBalance)
	}
	if st.Shares.Linear < 0 || st.Shares.Issued < 0 {
		return fmt.Errorf("%w: shares", ErrNegativeBalance)
	}
	for key, lb := range st.Leveraged {
		if lb.Supply < 0 || lb.Balance < -balanceTolerance || math.IsNaN(lb.Balance) {
			return fmt.Errorf("%w: bucket %s", ErrNegativeBalance, key)
		}
	}
	return nil
}
