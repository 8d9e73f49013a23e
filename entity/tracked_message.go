package entity

import (
	"time"
)

// NoMessageID is the placeholder for a message whose identifier is not known yet.
const NoMessageID = "0x"

type MessageKind string

const (
	MessageKindBridge                MessageKind = "bridge"
	MessageKindMessage               MessageKind = "message"
	MessageKindInterchainAccountCall MessageKind = "interchain_account_call"
)

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusFailed    MessageStatus = "failed"
)

// IsTerminal is true for statuses a message never leaves.
func (s MessageStatus) IsTerminal() bool {
	return s == MessageStatusDelivered || s == MessageStatusFailed
}

// CanTransitionTo enforces pending -> delivered|failed only.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	if s == next {
		return true
	}
	return s == MessageStatusPending && next.IsTerminal()
}

type TrackedMessage struct {
	MessageID          string        `json:"messageId"`
	OriginChainID      uint64        `json:"originChainId"`
	DestinationChainID uint64        `json:"destinationChainId"`
	Kind               MessageKind   `json:"kind"`
	Status             MessageStatus `json:"status"`
	OriginTxHash       string        `json:"originTxHash"`
	DestinationTxHash  *string       `json:"destinationTxHash,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	LastCheckedAt      *time.Time    `json:"lastCheckedAt,omitempty"`
	Description        string        `json:"description"`
	Body               *string       `json:"body,omitempty"`
}

func IsKnownMessageID(id string) bool {
	return id != "" && id != NoMessageID
}

// Clone returns a deep copy, so callers never share pointers with the ledger.
func (m *TrackedMessage) Clone() *TrackedMessage {
	res := *m
	if m.DestinationTxHash != nil {
		res.DestinationTxHash = stringPtr(*m.DestinationTxHash)
	}
	if m.LastCheckedAt != nil {
		ts := *m.LastCheckedAt
		res.LastCheckedAt = &ts
	}
	if m.Body != nil {
		res.Body = stringPtr(*m.Body)
	}
	return &res
}

// MessagePatch holds the fields the reconciler may change; nil fields are left untouched.
type MessagePatch struct {
	Status            *MessageStatus
	DestinationTxHash *string
	Body              *string
	LastCheckedAt     *time.Time
}

// DeliveryStatus is what a status backend learned about one message.
type DeliveryStatus struct {
	Status            MessageStatus
	DestinationTxHash *string
	Body              *string
}

func stringPtr(v string) *string {
	return &v
}
