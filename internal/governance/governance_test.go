package governance

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

const day = 24 * 3600

func TestVoteAndCommit(t *testing.T) {
	var g model.GovernanceState
	if err := Vote(&g, alice, SwapFee, 0.001, 1000, 100); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if got := Support(g, SwapFee, 0.001); got != 1000 {
		t.Fatalf("support = %d", got)
	}
	if g.Leaders[SwapFee].Value != "0.001" || g.Leaders[SwapFee].ChallengeStartTs != 100 {
		t.Fatalf("leader = %+v", g.Leaders[SwapFee])
	}

	if _, err := Commit(&g, SwapFee, 0.003, 100+4*day-1, 4*day); !errors.Is(err, ErrChallenging) {
		t.Fatalf("early commit: %v", err)
	}
	v, err := Commit(&g, SwapFee, 0.003, 100+4*day, 4*day)
	if err != nil || v != 0.001 {
		t.Fatalf("commit = %v, %v", v, err)
	}
	if _, err := Commit(&g, SwapFee, 0.001, 100+5*day, 4*day); !errors.Is(err, ErrAlreadyCommitted) {
		t.Fatalf("repeated commit: %v", err)
	}
}

func TestLeaderChangesOnlyWhenExceeded(t *testing.T) {
	var g model.GovernanceState
	_ = Vote(&g, alice, ExitFee, 0.01, 500, 10)
	_ = Vote(&g, bob, ExitFee, 0.02, 500, 20)
	if g.Leaders[ExitFee].Value != "0.01" {
		t.Fatalf("tie must keep the leader: %+v", g.Leaders[ExitFee])
	}

	_ = Vote(&g, bob, ExitFee, 0.02, 1, 30)
	if l := g.Leaders[ExitFee]; l.Value != "0.02" || l.ChallengeStartTs != 30 {
		t.Fatalf("leader = %+v", l)
	}
	if got := Support(g, ExitFee, 0.02); got != 501 {
		t.Fatalf("support = %d", got)
	}

	// alice joins bob's value, her old support disappears
	_ = Vote(&g, alice, ExitFee, 0.02, 0, 40)
	if Support(g, ExitFee, 0.01) != 0 || Support(g, ExitFee, 0.02) != 1001 {
		t.Fatalf("support after move: %+v", g.Support[ExitFee])
	}
	if g.Leaders[ExitFee].ChallengeStartTs != 30 {
		t.Fatalf("timer must not reset for the same leader")
	}
}

func TestRemoveVoteRevertsLeader(t *testing.T) {
	var g model.GovernanceState
	_ = Vote(&g, alice, BaseInterestRate, 0.1, 300, 10)
	_ = Vote(&g, bob, BaseInterestRate, 0.2, 400, 20)
	if g.Leaders[BaseInterestRate].Value != "0.2" {
		t.Fatalf("leader = %+v", g.Leaders[BaseInterestRate])
	}
	if err := RemoveVote(&g, bob, BaseInterestRate, 30); err != nil {
		t.Fatalf("remove vote: %v", err)
	}
	if l := g.Leaders[BaseInterestRate]; l.Value != "0.1" || l.ChallengeStartTs != 30 {
		t.Fatalf("leader = %+v", l)
	}
	if err := RemoveVote(&g, bob, BaseInterestRate, 40); !errors.Is(err, ErrNoVote) {
		t.Fatalf("second removal: %v", err)
	}
}

func TestStakeAddsToEveryVote(t *testing.T) {
	var g model.GovernanceState
	_ = Vote(&g, alice, SwapFee, 0.002, 100, 10)
	_ = Vote(&g, alice, ExitFee, 0.01, 50, 20)
	if Support(g, SwapFee, 0.002) != 150 || Support(g, ExitFee, 0.01) != 150 {
		t.Fatalf("support: %+v", g.Support)
	}
}

func TestWithdraw(t *testing.T) {
	var g model.GovernanceState
	_ = Vote(&g, alice, SwapFee, 0.002, 100, 10)
	if _, err := Withdraw(&g, alice); !errors.Is(err, ErrActiveVotes) {
		t.Fatalf("withdraw with votes: %v", err)
	}
	_ = RemoveVote(&g, alice, SwapFee, 20)
	amount, err := Withdraw(&g, alice)
	if err != nil || amount != 100 {
		t.Fatalf("withdraw = %d, %v", amount, err)
	}
	if _, err := Withdraw(&g, alice); !errors.Is(err, ErrNoBalance) {
		t.Fatalf("second withdraw: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name      string
		value     float64
		rangeMode bool
		ok        bool
	}{
		{SwapFee, 0.01, false, true},
		{SwapFee, 1, false, false},
		{ArbProfitTax, 3, false, true},
		{Alpha, 0.3, false, true},
		{Alpha, 0.3, true, false},
		{PoolLeverage, 5, false, true},
		{PoolLeverage, 0.5, false, false},
		{MidPrice, 100, false, false},
		{MidPrice, 100, true, true},
		{PriceDeviation, 1, true, false},
		{"fee", 0.1, false, false},
	}
	for _, tc := range cases {
		err := Validate(tc.name, tc.value, tc.rangeMode)
		if (err == nil) != tc.ok {
			t.Fatalf("Validate(%s, %v, %v) = %v", tc.name, tc.value, tc.rangeMode, err)
		}
	}
}
