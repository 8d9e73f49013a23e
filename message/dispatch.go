package message

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/interchain-tracker/contract/interchainabi"
)

var (
	ErrNoDispatch        = errors.New("no dispatch event in logs")
	ErrMalformedDispatch = errors.New("malformed dispatch event")
)

// Dispatch is a decoded mailbox Dispatch event.
type Dispatch struct {
	Mailbox     common.Address
	Sender      common.Address
	Destination uint32
	Recipient   common.Hash
	Body        []byte
}

// FindDispatch decodes the first mailbox Dispatch event among logs.
func FindDispatch(logs []*types.Log) (*Dispatch, error) {
	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 {
			continue
		}
		event, data, err := interchainabi.MailboxABI.ParseLog(log)
		if err != nil {
			return nil, fmt.Errorf("can't parse log %d: %w", log.Index, err)
		}
		if event != interchainabi.Dispatch {
			continue
		}
		return dispatchFromMap(log.Address, data)
	}
	return nil, ErrNoDispatch
}

func dispatchFromMap(mailbox common.Address, data map[string]interface{}) (*Dispatch, error) {
	sender, ok1 := data["sender"].(common.Address)
	destination, ok2 := data["destination"].(uint32)
	recipient, ok3 := data["recipient"].([32]byte)
	body, ok4 := data["message"].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, ErrMalformedDispatch
	}
	return &Dispatch{
		Mailbox:     mailbox,
		Sender:      sender,
		Destination: destination,
		Recipient:   recipient,
		Body:        body,
	}, nil
}
