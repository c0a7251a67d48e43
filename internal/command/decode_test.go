package command

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
)

var testAssets = Assets{X: "base", Y: "0xusd", Shares: "0xlp"}

func TestDecode(t *testing.T) {
	owner := "0x00000000000000000000000000000000000a11ce"
	cases := []struct {
		name     string
		data     string
		payments map[model.AssetID]int64
		want     string
	}{
		{"buy shares", `{"buy_shares":1}`, map[model.AssetID]int64{"base": 10, "0xusd": 1000}, "buy_shares"},
		{"remove", `{}`, map[model.AssetID]int64{"0xlp": 5}, "remove_liquidity"},
		{"swap by price", `{"final_price":120}`, map[model.AssetID]int64{"0xusd": 1000}, "swap"},
		{"swap by delta", `{"delta_xn":"-100"}`, map[model.AssetID]int64{"0xusd": 1000}, "swap"},
		{"buy", `{"buy":1,"L":5,"asset":"x","delta":100}`, map[model.AssetID]int64{"base": 30}, "buy"},
		{"sell", `{"sell":true,"L":5,"asset":"x","delta":100,"position":"position_5_1"}`, nil, "sell"},
		{"define", `{"define_leverage":1,"leverage":-10}`, nil, "define_leverage"},
		{"transfer", `{"transfer":1,"position":"position_5_1","new_owner":"` + owner + `"}`, nil, "transfer"},
		{"add profits", `{"add_profits":1}`, nil, "add_profits"},
		{"vote with stake", `{"vote":1,"name":"swap_fee","value":0.001}`, map[model.AssetID]int64{"0xlp": 5}, "vote"},
		{"remove vote", `{"remove_vote":1,"name":"swap_fee"}`, nil, "remove_vote"},
		{"commit", `{"commit":1,"name":"swap_fee"}`, nil, "commit"},
		{"withdraw", `{"withdraw":1}`, nil, "withdraw"},
	}
	for _, tc := range cases {
		cmd, err := Decode([]byte(tc.data), tc.payments, testAssets)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if cmd.Name() != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, cmd.Name(), tc.want)
		}
	}
}

func TestDecodeFields(t *testing.T) {
	cmd, err := Decode([]byte(`{"delta_yn":-500,"min_out":3}`), map[model.AssetID]int64{"base": 10}, testAssets)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	swap := cmd.(Swap)
	if swap.In != model.SideX || swap.Amount != 10 || swap.DeltaSide != model.SideY || swap.DeltaNet != -500 || swap.MinOut != 3 {
		t.Fatalf("swap = %+v", swap)
	}

	cmd, err = Decode([]byte(`{"preferred_asset":"y"}`), map[model.AssetID]int64{"0xlp": 7}, testAssets)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rl := cmd.(RemoveLiquidity)
	if rl.Shares != 7 || rl.PreferredAsset == nil || *rl.PreferredAsset != model.SideY {
		t.Fatalf("remove = %+v", rl)
	}

	cmd, err = Decode([]byte(`{"transfer":1,"position":"p","new_owner":"0x0000000000000000000000000000000000000B0B"}`), nil, testAssets)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.(Transfer).NewOwner != common.HexToAddress("0xb0b") {
		t.Fatalf("owner = %s", cmd.(Transfer).NewOwner.Hex())
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name     string
		data     string
		payments map[model.AssetID]int64
	}{
		{"empty", `{}`, nil},
		{"bad json", `{`, nil},
		{"swap with two assets", `{"final_price":100}`, map[model.AssetID]int64{"base": 1, "0xusd": 1}},
		{"buy into a position", `{"buy":1,"L":5,"asset":"x","delta":1,"position":"position_5_1"}`, nil},
		{"fractional leverage", `{"define_leverage":1,"leverage":2.5}`, nil},
		{"leverage overflows int", `{"define_leverage":1,"leverage":1e19}`, nil},
		{"L overflows int", `{"buy":1,"L":-1e19,"asset":"x","delta":1}`, map[model.AssetID]int64{"base": 30}},
		{"bad owner", `{"transfer":1,"position":"p","new_owner":"bob"}`, nil},
		{"bad side", `{"sell":1,"L":2,"asset":"z","delta":1,"tokens":1}`, nil},
		{"vote without value", `{"vote":1,"name":"swap_fee"}`, nil},
	}
	for _, tc := range cases {
		if _, err := Decode([]byte(tc.data), tc.payments, testAssets); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	if _, err := Decode(nil, nil, testAssets); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("nil payload: %v", err)
	}
}

func TestParseAssetID(t *testing.T) {
	id, err := ParseAssetID(" 0xABCD ")
	if err != nil || id != "0xabcd" {
		t.Fatalf("ParseAssetID = %q, %v", id, err)
	}
	if id, _ := ParseAssetID("base"); id != "base" {
		t.Fatalf("ParseAssetID(base) = %q", id)
	}
	if _, err := ParseAssetID("0xzz"); err == nil {
		t.Fatalf("expected error")
	}
}
