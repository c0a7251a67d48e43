package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"leveragePool/internal/model"
)

var ErrUnrecognized = errors.New("unrecognized command")

// Assets are the asset ids a pool accepts.
type Assets struct {
	X      model.AssetID
	Y      model.AssetID
	Shares model.AssetID
}

// flag accepts 1, true or "1".
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	switch string(b) {
	case "1", "true":
		*f = true
	case "0", "false", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", b)
	}
	return nil
}

// number accepts JSON numbers and numeric strings.
type number struct {
	set   bool
	value float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	n.set, n.value = true, v
	return nil
}

type payload struct {
	BuyShares      flag   `json:"buy_shares"`
	Buy            flag   `json:"buy"`
	Sell           flag   `json:"sell"`
	L              number `json:"L"`
	Asset          string `json:"asset"`
	Delta          number `json:"delta"`
	Tokens         flag   `json:"tokens"`
	Position       string `json:"position"`
	EntryPrice     number `json:"entry_price"`
	DefineLeverage flag   `json:"define_leverage"`
	Leverage       number `json:"leverage"`
	Transfer       flag   `json:"transfer"`
	NewOwner       string `json:"new_owner"`
	AddProfits     flag   `json:"add_profits"`
	PreferredAsset string `json:"preferred_asset"`
	FinalPrice     number `json:"final_price"`
	DeltaXn        number `json:"delta_xn"`
	DeltaYn        number `json:"delta_yn"`
	MinOut         number `json:"min_out"`
	Vote           flag   `json:"vote"`
	RemoveVote     flag   `json:"remove_vote"`
	Commit         flag   `json:"commit"`
	Withdraw       flag   `json:"withdraw"`
	Param          string `json:"name"`
	Value          number `json:"value"`
}

// Decode selects the command a trigger asks for from its data payload and
// the assets it carries.
func Decode(data []byte, payments map[model.AssetID]int64, assets Assets) (Command, error) {
	var p payload
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse payload: %w", err)
		}
	}
	paidX, paidY := payments[assets.X], payments[assets.Y]
	paidShares := payments[assets.Shares]

	switch {
	case bool(p.Vote):
		if p.Param == "" || !p.Value.set {
			return nil, fmt.Errorf("vote requires name and value")
		}
		return Vote{Param: p.Param, Value: p.Value.value, Stake: paidShares}, nil
	case bool(p.RemoveVote):
		if p.Param == "" {
			return nil, fmt.Errorf("remove_vote requires name")
		}
		return RemoveVote{Param: p.Param}, nil
	case bool(p.Commit):
		if p.Param == "" {
			return nil, fmt.Errorf("commit requires name")
		}
		return Commit{Param: p.Param}, nil
	case bool(p.Withdraw):
		return Withdraw{}, nil
	case bool(p.DefineLeverage):
		l, err := integer(p.Leverage, "leverage")
		if err != nil {
			return nil, err
		}
		return DefineLeverage{L: l}, nil
	case bool(p.Transfer):
		if p.Position == "" {
			return nil, fmt.Errorf("transfer requires position")
		}
		owner, err := ParseAddress(p.NewOwner)
		if err != nil {
			return nil, err
		}
		return Transfer{Position: p.Position, NewOwner: owner}, nil
	case bool(p.AddProfits):
		return AddProfits{}, nil
	case bool(p.Buy) || bool(p.Sell):
		return decodeTrade(p)
	case bool(p.BuyShares):
		if paidX <= 0 && paidY <= 0 {
			return nil, fmt.Errorf("buy_shares requires x or y")
		}
		return BuyShares{X: paidX, Y: paidY}, nil
	case paidShares > 0:
		cmd := RemoveLiquidity{Shares: paidShares}
		if p.PreferredAsset != "" {
			side, err := model.ParseSide(p.PreferredAsset)
			if err != nil {
				return nil, err
			}
			cmd.PreferredAsset = &side
		}
		return cmd, nil
	case p.FinalPrice.set || p.DeltaXn.set || p.DeltaYn.set:
		return decodeSwap(p, paidX, paidY)
	}
	return nil, ErrUnrecognized
}

func decodeTrade(p payload) (Command, error) {
	if p.Buy && p.Sell {
		return nil, fmt.Errorf("buy and sell are exclusive")
	}
	l, err := integer(p.L, "L")
	if err != nil {
		return nil, err
	}
	side, err := model.ParseSide(p.Asset)
	if err != nil {
		return nil, err
	}
	if !p.Delta.set || p.Delta.value <= 0 {
		return nil, fmt.Errorf("delta must be positive")
	}
	cmd := LeverageTrade{
		Buy:        bool(p.Buy),
		L:          l,
		Asset:      side,
		Delta:      p.Delta.value,
		Tokens:     bool(p.Tokens),
		Position:   p.Position,
		EntryPrice: p.EntryPrice.value,
	}
	if cmd.Buy {
		if cmd.Position != "" {
			return nil, fmt.Errorf("buy cannot target an existing position")
		}
	} else if (cmd.Position == "") == !cmd.Tokens {
		return nil, fmt.Errorf("sell requires either a position or tokens")
	}
	return cmd, nil
}

func decodeSwap(p payload, paidX, paidY int64) (Command, error) {
	if (paidX > 0) == (paidY > 0) {
		return nil, fmt.Errorf("swap requires exactly one of x or y")
	}
	cmd := Swap{In: model.SideX, Amount: paidX}
	if paidY > 0 {
		cmd.In, cmd.Amount = model.SideY, paidY
	}
	if p.MinOut.set {
		cmd.MinOut = int64(p.MinOut.value)
	}
	switch {
	case p.FinalPrice.set:
		if p.FinalPrice.value <= 0 {
			return nil, fmt.Errorf("final_price must be positive")
		}
		cmd.FinalPrice = p.FinalPrice.value
	case p.DeltaXn.set:
		cmd.DeltaSide, cmd.DeltaNet = model.SideX, p.DeltaXn.value
	default:
		cmd.DeltaSide, cmd.DeltaNet = model.SideY, p.DeltaYn.value
	}
	if cmd.FinalPrice == 0 && cmd.DeltaNet == 0 {
		return nil, fmt.Errorf("delta must be nonzero")
	}
	return cmd, nil
}

// maxInteger bounds integer fields so the conversion to int cannot wrap.
const maxInteger = math.MaxInt32

func integer(n number, field string) (int, error) {
	if !n.set || n.value != math.Trunc(n.value) {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	if math.Abs(n.value) > maxInteger {
		return 0, fmt.Errorf("%s is out of range: %v", field, n.value)
	}
	return int(n.value), nil
}

// ParseAddress converts a hex string into an address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseAssetID normalizes a hex asset id. Short names such as "base" are
// kept as they are.
func ParseAssetID(input string) (model.AssetID, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("asset id is required")
	}
	if !strings.HasPrefix(input, "0x") {
		return model.AssetID(input), nil
	}
	raw, err := hexutil.Decode(input)
	if err != nil {
		return "", fmt.Errorf("invalid asset id %q: %w", input, err)
	}
	return model.AssetID(hexutil.Encode(raw)), nil
}
