// Package command decodes trigger payloads into typed pool commands.
package command

import (
	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
)

// Command is one pool operation. The set is closed: the coordinator switches
// over the concrete types below.
type Command interface {
	Name() string
}

// BuyShares deposits both reserve assets for LP shares.
type BuyShares struct {
	X int64
	Y int64
}

// RemoveLiquidity redeems issued shares.
type RemoveLiquidity struct {
	Shares         int64
	PreferredAsset *model.Side
}

// Swap trades one reserve asset for the other. Exactly one of FinalPrice
// and DeltaNet is set. FinalPrice is the target price of the output asset
// in units of the input asset.
type Swap struct {
	In         model.Side
	Amount     int64
	FinalPrice float64
	// DeltaNet is the requested change of the net balance of DeltaSide.
	DeltaNet  float64
	DeltaSide model.Side
	MinOut    int64
}

// LeverageTrade buys or sells leveraged exposure. Delta is always positive:
// what the pool gives on a buy, what it receives on a sell.
type LeverageTrade struct {
	Buy        bool
	L          int
	Asset      model.Side
	Delta      float64
	Tokens     bool
	Position   string
	EntryPrice float64
}

// DefineLeverage registers a token for a leverage bucket.
type DefineLeverage struct {
	L int
}

// Transfer hands a position to a new owner.
type Transfer struct {
	Position string
	NewOwner common.Address
}

// AddProfits folds symmetric profits into the reserves.
type AddProfits struct{}

// Vote supports value for a governance parameter, optionally adding stake.
type Vote struct {
	Param string
	Value float64
	Stake int64
}

// RemoveVote withdraws support for a parameter.
type RemoveVote struct {
	Param string
}

// Commit applies the leader value of a parameter.
type Commit struct {
	Param string
}

// Withdraw releases escrowed governance stake.
type Withdraw struct{}

func (BuyShares) Name() string       { return "buy_shares" }
func (RemoveLiquidity) Name() string { return "remove_liquidity" }
func (Swap) Name() string            { return "swap" }
func (DefineLeverage) Name() string  { return "define_leverage" }
func (Transfer) Name() string        { return "transfer" }
func (AddProfits) Name() string      { return "add_profits" }
func (Vote) Name() string            { return "vote" }
func (RemoveVote) Name() string      { return "remove_vote" }
func (Commit) Name() string          { return "commit" }
func (Withdraw) Name() string        { return "withdraw" }

func (t LeverageTrade) Name() string {
	if t.Buy {
		return "buy"
	}
	return "sell"
}
