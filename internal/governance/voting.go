package governance

import (
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
)

var (
	ErrUnknownParam     = errors.New("unknown parameter")
	ErrInvalidValue     = errors.New("invalid parameter value")
	ErrNoBalance        = errors.New("no voting balance")
	ErrNoVote           = errors.New("no vote for this parameter")
	ErrNoLeader         = errors.New("no leader for this parameter")
	ErrChallenging      = errors.New("challenging period has not expired yet")
	ErrAlreadyCommitted = errors.New("leader value is already in effect")
	ErrActiveVotes      = errors.New("remove all votes before withdrawing")
)

// DefaultChallengingPeriod is how long a leader must stay unbeaten.
const DefaultChallengingPeriod = 3 * 24 * 3600

func ensure(g *model.GovernanceState) {
	if g.Balances == nil {
		g.Balances = make(map[common.Address]int64)
	}
	if g.Votes == nil {
		g.Votes = make(map[common.Address]map[string]model.Vote)
	}
	if g.Support == nil {
		g.Support = make(map[string]map[string]int64)
	}
	if g.Leaders == nil {
		g.Leaders = make(map[string]model.Leader)
	}
	if g.Committed == nil {
		g.Committed = make(map[string]string)
	}
}

func addSupport(g *model.GovernanceState, name, value string, amount int64) {
	values := g.Support[name]
	if values == nil {
		values = make(map[string]int64)
		g.Support[name] = values
	}
	values[value] += amount
	if values[value] <= 0 {
		delete(values, value)
	}
}

// Vote puts the voter's whole balance, increased by stake, behind value.
// A previous vote on the same parameter is moved.
func Vote(g *model.GovernanceState, voter common.Address, name string, value float64, stake int64, now int64) error {
	ensure(g)
	balance := g.Balances[voter] + stake
	if balance <= 0 {
		return ErrNoBalance
	}
	g.Balances[voter] = balance

	votes := g.Votes[voter]
	if votes == nil {
		votes = make(map[string]model.Vote)
		g.Votes[voter] = votes
	}
	if stake > 0 {
		for other, v := range votes {
			if other == name {
				continue
			}
			addSupport(g, other, v.Value, stake)
			v.Support += stake
			votes[other] = v
			refreshLeader(g, other, now)
		}
	}
	if old, ok := votes[name]; ok {
		addSupport(g, name, old.Value, -old.Support)
	}
	key := FormatValue(value)
	addSupport(g, name, key, balance)
	votes[name] = model.Vote{Value: key, Support: balance}
	refreshLeader(g, name, now)
	return nil
}

// RemoveVote withdraws the voter's support for name.
func RemoveVote(g *model.GovernanceState, voter common.Address, name string, now int64) error {
	ensure(g)
	old, ok := g.Votes[voter][name]
	if !ok {
		return ErrNoVote
	}
	addSupport(g, name, old.Value, -old.Support)
	delete(g.Votes[voter], name)
	if len(g.Votes[voter]) == 0 {
		delete(g.Votes, voter)
	}
	refreshLeader(g, name, now)
	return nil
}

// refreshLeader switches the leader when another value has strictly more
// support, restarting the challenging period.
func refreshLeader(g *model.GovernanceState, name string, now int64) {
	values := g.Support[name]
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestSupport := "", int64(0)
	for _, k := range keys {
		if values[k] > bestSupport {
			best, bestSupport = k, values[k]
		}
	}
	if best == "" {
		return
	}
	leader, ok := g.Leaders[name]
	if !ok || (best != leader.Value && bestSupport > values[leader.Value]) {
		g.Leaders[name] = model.Leader{Value: best, ChallengeStartTs: now}
	}
}

// Commit returns the leader value of name once its challenging period is
// over and it differs from current.
func Commit(g *model.GovernanceState, name string, current float64, now, period int64) (float64, error) {
	ensure(g)
	leader, ok := g.Leaders[name]
	if !ok {
		return 0, ErrNoLeader
	}
	if now < leader.ChallengeStartTs+period {
		return 0, ErrChallenging
	}
	value, err := ParseValue(leader.Value)
	if err != nil {
		return 0, err
	}
	if value == current {
		return 0, ErrAlreadyCommitted
	}
	g.Committed[name] = leader.Value
	return value, nil
}

// Withdraw releases the voter's escrowed shares.
func Withdraw(g *model.GovernanceState, voter common.Address) (int64, error) {
	ensure(g)
	if len(g.Votes[voter]) > 0 {
		return 0, ErrActiveVotes
	}
	balance := g.Balances[voter]
	if balance <= 0 {
		return 0, ErrNoBalance
	}
	delete(g.Balances, voter)
	return balance, nil
}

// Support returns the total support of value for name.
func Support(g model.GovernanceState, name string, value float64) int64 {
	return g.Support[name][FormatValue(value)]
}
