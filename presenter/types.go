package presenter

import (
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/flow"
)

type MessageInfo struct {
	*entity.TrackedMessage
	OriginTxLink      string `json:"originTxLink,omitempty"`
	DestinationTxLink string `json:"destinationTxLink,omitempty"`
}

type HistoryResult struct {
	Messages []*MessageInfo `json:"messages"`
	Pending  int            `json:"pending"`
}

type PendingResult struct {
	MessageIDs []string `json:"messageIds"`
}

type SessionsResult struct {
	Sessions []*flow.SessionView `json:"sessions"`
}
