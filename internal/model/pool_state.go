package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Side names one of the two reserve assets.
type Side string

const (
	SideX Side = "x"
	SideY Side = "y"
)

// Other returns the opposite reserve asset.
func (s Side) Other() Side {
	if s == SideX {
		return SideY
	}
	return SideX
}

// ParseSide validates an asset label.
func ParseSide(label string) (Side, error) {
	switch Side(label) {
	case SideX, SideY:
		return Side(label), nil
	default:
		return "", fmt.Errorf("unsupported asset label: %q", label)
	}
}

// AssetID identifies an asset on the host ledger.
type AssetID string

// Pair holds one value per reserve asset.
type Pair struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Get returns the value for side.
func (p Pair) Get(side Side) float64 {
	if side == SideX {
		return p.X
	}
	return p.Y
}

// Add increments the value for side.
func (p *Pair) Add(side Side, v float64) {
	if side == SideX {
		p.X += v
	} else {
		p.Y += v
	}
}

// Balances are the gross (x, y) and net (xn, yn) reserves of the pool.
type Balances struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Xn float64 `json:"xn"`
	Yn float64 `json:"yn"`
}

// Net returns the net balance of side.
func (b Balances) Net(side Side) float64 {
	if side == SideX {
		return b.Xn
	}
	return b.Yn
}

// Gross returns the gross balance of side.
func (b Balances) Gross(side Side) float64 {
	if side == SideX {
		return b.X
	}
	return b.Y
}

// LPShares tracks pool ownership.
type LPShares struct {
	Linear  int64   `json:"linear"`
	Issued  int64   `json:"issued"`
	Coef    float64 `json:"coef"`
	AssetID AssetID `json:"asset_id"`
}

// LeveragedBalance is one leverage bucket. Balance is the amount of the
// bucket's own asset it holds at the current price.
type LeveragedBalance struct {
	Supply  int64   `json:"supply"`
	Balance float64 `json:"balance"`
}

// Position is a non-fungible leveraged holding.
type Position struct {
	Owner  common.Address `json:"owner"`
	Shares int64          `json:"shares"`
	Price  float64        `json:"price"`
	Ts     int64          `json:"ts"`
}

// PriceBucket is one hour of observed prices.
type PriceBucket struct {
	StartTs int64   `json:"start_ts"`
	Pmin    float64 `json:"pmin"`
	Pmax    float64 `json:"pmax"`
}

// LastTrade describes the most recent trade, merged across a response chain.
type LastTrade struct {
	Address   common.Address `json:"address"`
	Ts        int64          `json:"ts"`
	Pmin      float64        `json:"pmin"`
	Pmax      float64        `json:"pmax"`
	Amounts   Pair           `json:"amounts"`
	PaidTaxes Pair           `json:"paid_taxes"`
}

// Recent is the rolling price window.
type Recent struct {
	LastTs    int64        `json:"last_ts"`
	Prev      *PriceBucket `json:"prev,omitempty"`
	Current   *PriceBucket `json:"current,omitempty"`
	LastTrade *LastTrade   `json:"last_trade,omitempty"`
}

// PoolState is the full persisted state of one pool instance.
type PoolState struct {
	Address         common.Address              `json:"address"`
	XAsset          AssetID                     `json:"x_asset"`
	YAsset          AssetID                     `json:"y_asset"`
	ShareCurve      string                      `json:"share_curve"`
	Params          Params                      `json:"params"`
	Balances        Balances                    `json:"balances"`
	Profits         Pair                        `json:"profits"`
	Shares          LPShares                    `json:"lp_shares"`
	Leveraged       map[string]LeveragedBalance `json:"leveraged_balances"`
	LeveragedAssets map[string]AssetID          `json:"leveraged_assets"`
	Positions       map[string]Position         `json:"positions"`
	PositionCount   int64                       `json:"position_count"`
	Recent          Recent                      `json:"recent"`
	Holdings        Pair                        `json:"holdings"`
	Governance      GovernanceState             `json:"governance"`
}

// Asset maps a reserve side to its asset id.
func (s *PoolState) Asset(side Side) AssetID {
	if side == SideX {
		return s.XAsset
	}
	return s.YAsset
}

// Clone returns a deep copy so a trigger can be executed speculatively.
func (s *PoolState) Clone() PoolState {
	out := *s
	out.Leveraged = make(map[string]LeveragedBalance, len(s.Leveraged))
	for k, v := range s.Leveraged {
		out.Leveraged[k] = v
	}
	out.LeveragedAssets = make(map[string]AssetID, len(s.LeveragedAssets))
	for k, v := range s.LeveragedAssets {
		out.LeveragedAssets[k] = v
	}
	out.Positions = make(map[string]Position, len(s.Positions))
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	if s.Recent.Prev != nil {
		prev := *s.Recent.Prev
		out.Recent.Prev = &prev
	}
	if s.Recent.Current != nil {
		cur := *s.Recent.Current
		out.Recent.Current = &cur
	}
	if s.Recent.LastTrade != nil {
		lt := *s.Recent.LastTrade
		out.Recent.LastTrade = &lt
	}
	out.Governance = s.Governance.Clone()
	return out
}
