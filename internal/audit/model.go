package audit

import (
	"encoding/json"
	"time"
)

type ActionType string

const (
	ActionUserUpdate          ActionType = "USER_UPDATE"
	ActionWalletUpdate        ActionType = "WALLET_UPDATE"
	ActionAccessProfileUpdate ActionType = "ACCESS_PROFILE_UPDATE"
)

type UpdateMethod string

const (
	MethodDiscount UpdateMethod = "DISCOUNT"
	MethodManual   UpdateMethod = "MANUAL"
	MethodSystem   UpdateMethod = "SYSTEM"
)

// Metadata is attached to wallet-affecting entries only.
type Metadata struct {
	UpdateMethod UpdateMethod `json:"updateMethod"`
	AmountChange int64        `json:"amountChange"`
	Reason       string       `json:"reason,omitempty"`
}

// Entry is one immutable audit record. PerformedBy always comes from the
// authenticated session, never from the request body. Timestamp is
// assigned by the store at write time so client clock skew cannot reorder
// the log.
type Entry struct {
	ID            string          `json:"id,omitempty"`
	ActionType    ActionType      `json:"actionType"`
	PerformedBy   string          `json:"performedBy"`
	MonthlyID     string          `json:"monthlyId"`
	PreviousState json.RawMessage `json:"previousState,omitempty"`
	NewState      json.RawMessage `json:"newState,omitempty"`
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Filters narrows a Query. Zero values mean "not filtered"; all supplied
// filters must match.
type Filters struct {
	MonthlyID   string
	ActionType  ActionType
	PerformedBy string
	From        time.Time
	To          time.Time
	Limit       int
}
