package message

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/interchain-tracker/contract/interchainabi"
	"github.com/omni/interchain-tracker/entity"
)

// ExtractID finds the cross-chain message id among receipt logs.
//
// The log whose first topic is the mailbox DispatchId signature wins. When
// there is none, the second topic of the first log with at least two topics is
// used, which tolerates routers that wrap the dispatch in their own event.
// entity.NoMessageID is returned when no log qualifies.
func ExtractID(logs []*types.Log) string {
	return ExtractIDWithSignature(logs, interchainabi.DispatchIDEventSignature)
}

func ExtractIDWithSignature(logs []*types.Log, signature common.Hash) string {
	for _, log := range logs {
		if log != nil && len(log.Topics) >= 2 && log.Topics[0] == signature {
			return log.Topics[1].Hex()
		}
	}
	for _, log := range logs {
		if log != nil && len(log.Topics) >= 2 {
			return log.Topics[1].Hex()
		}
	}
	return entity.NoMessageID
}

// IsKnownID is false for identifiers that can't be tracked.
func IsKnownID(id string) bool {
	return entity.IsKnownMessageID(id)
}
