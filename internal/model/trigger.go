package model

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Trigger is one incoming transaction addressed to the pool.
type Trigger struct {
	ID       string            `json:"id"`
	Address  common.Address    `json:"address"`
	Ts       int64             `json:"ts"`
	Payments map[AssetID]int64 `json:"payments"`
	Data     json.RawMessage   `json:"data,omitempty"`
}

// Paid returns the amount of asset sent with the trigger.
func (t Trigger) Paid(asset AssetID) int64 {
	return t.Payments[asset]
}

// Payment is an outgoing transfer from the pool.
type Payment struct {
	Asset   AssetID        `json:"asset"`
	Address common.Address `json:"address"`
	Amount  int64          `json:"amount"`
}

// Response is the recorded outcome of a trigger.
type Response struct {
	TriggerID string         `json:"trigger_id"`
	Address   common.Address `json:"address"`
	Ts        int64          `json:"ts"`
	Bounced   bool           `json:"bounced"`
	Error     string         `json:"error,omitempty"`
	Vars      map[string]any `json:"response_vars,omitempty"`
	Payments  []Payment      `json:"payments,omitempty"`
}
