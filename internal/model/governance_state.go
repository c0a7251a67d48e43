package model

import "github.com/ethereum/go-ethereum/common"

// Vote is a voter's current choice for one parameter.
type Vote struct {
	Value   string `json:"value"`
	Support int64  `json:"support"`
}

// Leader is the best supported value for one parameter.
type Leader struct {
	Value            string `json:"value"`
	ChallengeStartTs int64  `json:"challenging_period_start_ts"`
}

// GovernanceState holds escrowed stakes and per-parameter voting.
type GovernanceState struct {
	Balances  map[common.Address]int64           `json:"balances"`
	Votes     map[common.Address]map[string]Vote `json:"votes"`
	Support   map[string]map[string]int64        `json:"support"`
	Leaders   map[string]Leader                  `json:"leaders"`
	Committed map[string]string                  `json:"committed"`
}

// Clone returns a deep copy.
func (g GovernanceState) Clone() GovernanceState {
	out := GovernanceState{
		Balances:  make(map[common.Address]int64, len(g.Balances)),
		Votes:     make(map[common.Address]map[string]Vote, len(g.Votes)),
		Support:   make(map[string]map[string]int64, len(g.Support)),
		Leaders:   make(map[string]Leader, len(g.Leaders)),
		Committed: make(map[string]string, len(g.Committed)),
	}
	for k, v := range g.Balances {
		out.Balances[k] = v
	}
	for voter, votes := range g.Votes {
		m := make(map[string]Vote, len(votes))
		for name, v := range votes {
			m[name] = v
		}
		out.Votes[voter] = m
	}
	for name, values := range g.Support {
		m := make(map[string]int64, len(values))
		for value, s := range values {
			m[value] = s
		}
		out.Support[name] = m
	}
	for k, v := range g.Leaders {
		out.Leaders[k] = v
	}
	for k, v := range g.Committed {
		out.Committed[k] = v
	}
	return out
}
