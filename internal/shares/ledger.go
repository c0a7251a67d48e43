package shares

import (
	"errors"
	"math"

	"leveragePool/internal/model"
)

var (
	ErrEmptyDeposit    = errors.New("both assets are required")
	ErrTooSmall        = errors.New("deposit is too small to mint a share")
	ErrNoShares        = errors.New("pool has no shares")
	ErrInsufficientOut = errors.New("redemption rounds to nothing")
)

// Book is the part of the pool state the share ledger reads and writes.
type Book struct {
	Params   model.Params
	Balances model.Balances
	Profits  model.Pair
	Shares   model.LPShares
	// Price is the current price of x in y.
	Price float64
}

func (b Book) leverage() float64 {
	if b.Params.PoolLeverage < 1 {
		return 1
	}
	return b.Params.PoolLeverage
}

// Deposit is the outcome of buy_shares.
type Deposit struct {
	Linear      int64
	Issued      int64
	Used        model.Pair
	FromProfits model.Pair
}

// Withdrawal is the outcome of a liquidity removal. Out is already rounded
// down to whole units.
type Withdrawal struct {
	Linear int64
	Out    model.Pair
}

// Ledger applies share issuance and redemption.
type Ledger struct {
	Transform Transform
}

// NewLedger returns a ledger using t, linear when t is nil.
func NewLedger(t Transform) Ledger {
	if t == nil {
		t = Linear{}
	}
	return Ledger{Transform: t}
}

// AddProfits folds the part of the accumulated profits that is proportional
// to the net balances into the pool. The remaining profits stay one sided.
func (l Ledger) AddProfits(b Book) (Book, model.Pair) {
	s := symmetricShare(b.Profits, b.Balances)
	if s <= 0 || b.Shares.Linear == 0 {
		return b, model.Pair{}
	}
	moved := model.Pair{X: s * b.Balances.Xn, Y: s * b.Balances.Yn}
	b.Balances = scaleNets(b.Balances, moved, b.leverage())
	b.Profits.X -= moved.X
	b.Profits.Y -= moved.Y
	b.Shares.Coef *= 1 + s
	return b, moved
}

func symmetricShare(profits model.Pair, bal model.Balances) float64 {
	if profits.X < 0 || profits.Y < 0 {
		return 0
	}
	s := math.Inf(1)
	if bal.Xn > 0 {
		s = profits.X / bal.Xn
	}
	if bal.Yn > 0 {
		s = math.Min(s, profits.Y/bal.Yn)
	}
	if math.IsInf(s, 1) {
		return 0
	}
	return s
}

// scaleNets adds amounts proportional to the nets and scales gross balances
// by the same ratios, which keeps the price.
func scaleNets(bal model.Balances, add model.Pair, lev float64) model.Balances {
	if lev == 1 {
		bal.Xn += add.X
		bal.Yn += add.Y
		bal.X, bal.Y = bal.Xn, bal.Yn
		return bal
	}
	if bal.Xn > 0 {
		bal.X *= (bal.Xn + add.X) / bal.Xn
	}
	if bal.Yn > 0 {
		bal.Y *= (bal.Yn + add.Y) / bal.Yn
	}
	bal.Xn += add.X
	bal.Yn += add.Y
	return bal
}

// Buy mints shares for a deposit of x and y. Whatever is not used is left to
// the caller to refund.
func (l Ledger) Buy(b Book, x, y float64) (Book, Deposit, error) {
	if b.Shares.Linear == 0 {
		return l.initial(b, x, y)
	}
	lev := b.leverage()
	b, _ = l.AddProfits(b)

	px, py := 0.0, 0.0
	if lev == 1 {
		px, py = math.Max(b.Profits.X, 0), math.Max(b.Profits.Y, 0)
	}
	r := math.Inf(1)
	if b.Balances.Xn > 0 {
		r = (x + px) / b.Balances.Xn
	}
	if b.Balances.Yn > 0 {
		r = math.Min(r, (y+py)/b.Balances.Yn)
	}
	if math.IsInf(r, 1) || r <= 0 {
		return b, Deposit{}, ErrEmptyDeposit
	}

	needed := model.Pair{X: r * b.Balances.Xn, Y: r * b.Balances.Yn}
	moved := model.Pair{X: math.Min(px, needed.X), Y: math.Min(py, needed.Y)}
	linear := float64(b.Shares.Linear)
	exact := r * linear
	if moved.X > 0 || moved.Y > 0 {
		sharePriceY := (b.Balances.Yn + b.Balances.Xn*b.Price) / linear
		exact -= (moved.X*b.Price + moved.Y) / sharePriceY
	}
	minted := int64(math.Floor(exact))
	if minted <= 0 {
		return b, Deposit{}, ErrTooSmall
	}

	b.Balances = scaleNets(b.Balances, needed, lev)
	b.Profits.X -= moved.X
	b.Profits.Y -= moved.Y
	if lev == 1 {
		b.Shares.Coef *= (linear + r*linear) / (linear + float64(minted))
	}
	issuedBefore := b.Shares.Issued
	b.Shares.Linear += minted
	b.Shares.Issued = l.Transform.Issued(b.Shares.Linear)

	return b, Deposit{
		Linear:      minted,
		Issued:      b.Shares.Issued - issuedBefore,
		Used:        model.Pair{X: needed.X - moved.X, Y: needed.Y - moved.Y},
		FromProfits: moved,
	}, nil
}

func (l Ledger) initial(b Book, x, y float64) (Book, Deposit, error) {
	p := b.Params
	var linear float64
	if p.RangeMode() {
		if x <= 0 || y <= 0 {
			return b, Deposit{}, ErrEmptyDeposit
		}
		if y < x*p.MidPrice {
			x = y / p.MidPrice
		}
		y = x * p.MidPrice
		linear = x * math.Pow(p.MidPrice, p.Beta()) * p.PriceDeviation / (p.PriceDeviation - 1)
	} else {
		if x <= 0 || y <= 0 {
			return b, Deposit{}, ErrEmptyDeposit
		}
		linear = math.Pow(x, p.Alpha) * math.Pow(y, p.Beta())
	}
	minted := int64(math.Round(linear))
	if minted <= 0 {
		return b, Deposit{}, ErrTooSmall
	}
	lev := b.leverage()
	// nets left behind by a full exit (exit fees, rounding dust) are not
	// owned by the new shares
	b.Profits.X += b.Balances.Xn
	b.Profits.Y += b.Balances.Yn
	b.Balances = model.Balances{X: lev * x, Y: lev * y, Xn: x, Yn: y}
	b.Shares.Linear = minted
	b.Shares.Issued = l.Transform.Issued(minted)
	b.Shares.Coef = 1
	return b, Deposit{Linear: minted, Issued: b.Shares.Issued, Used: model.Pair{X: x, Y: y}}, nil
}

// Window is the lowest and highest recent price, used to value one-sided
// redemptions.
type Window struct {
	Min float64
	Max float64
}

// Remove redeems n issued shares. With a preferred asset, the excess of that
// asset over what the gross balance needs is paid out first.
func (l Ledger) Remove(b Book, n int64, preferred *model.Side, w Window) (Book, Withdrawal, error) {
	if b.Shares.Linear == 0 {
		return b, Withdrawal{}, ErrNoShares
	}
	r, err := l.Transform.Redeem(b.Shares.Linear, b.Shares.Issued, n)
	if err != nil {
		return b, Withdrawal{}, err
	}
	lev := b.leverage()
	b, _ = l.AddProfits(b)

	fee := b.Params.ExitFee
	linear := float64(b.Shares.Linear)
	remaining := float64(r)
	var out model.Pair

	if preferred != nil && lev > 1 {
		side := *preferred
		excess := math.Max(0, b.Balances.Net(side)-b.Balances.Gross(side)/lev)
		price := sharePrice(b.Balances, side, w, linear, fee)
		if price > 0 && excess > 0 {
			value := remaining * price
			take := math.Min(value, excess)
			out.Add(side, take)
			if side == model.SideX {
				b.Balances.Xn -= take
			} else {
				b.Balances.Yn -= take
			}
			remaining -= take / price
		}
	}

	// the proportional part is taken from the nets left after the excess
	if remaining > 1e-9 {
		frac := remaining / linear * (1 - fee)
		prop := model.Pair{X: frac * b.Balances.Xn, Y: frac * b.Balances.Yn}
		out.X += prop.X
		out.Y += prop.Y
		b.Balances = scaleNets(b.Balances, model.Pair{X: -prop.X, Y: -prop.Y}, lev)
	}

	floored := model.Pair{X: math.Floor(out.X), Y: math.Floor(out.Y)}
	if floored.X <= 0 && floored.Y <= 0 {
		return b, Withdrawal{}, ErrInsufficientOut
	}
	dust := model.Pair{X: out.X - floored.X, Y: out.Y - floored.Y}
	if lev == 1 {
		b.Profits.X += dust.X
		b.Profits.Y += dust.Y
	} else {
		b.Balances = scaleNets(b.Balances, dust, lev)
	}

	if left := linear - float64(r); lev == 1 && left > 0 {
		b.Shares.Coef *= (linear - float64(r)*(1-fee)) / left
	}
	b.Shares.Linear -= r
	b.Shares.Issued -= n
	return b, Withdrawal{Linear: r, Out: floored}, nil
}

// sharePrice values one linear share in side, pricing the other asset at
// the least favourable price of the recent window.
func sharePrice(bal model.Balances, side model.Side, w Window, linear, fee float64) float64 {
	if side == model.SideX {
		if w.Max <= 0 {
			return 0
		}
		return (bal.Xn + bal.Yn/w.Max) / linear * (1 - fee)
	}
	return (bal.Yn + bal.Xn*w.Min) / linear * (1 - fee)
}
