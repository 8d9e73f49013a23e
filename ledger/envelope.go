package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omni/interchain-tracker/entity"
)

// SchemaVersion is written into every persisted envelope.
// Version 0 is the original layout, which carried no version field at all.
const SchemaVersion = 1

var ErrUnsupportedSchema = errors.New("unsupported ledger schema version")

type envelope struct {
	Version int                      `json:"version"`
	History []*entity.TrackedMessage `json:"history"`
}

func encodeEnvelope(history []*entity.TrackedMessage) (string, error) {
	if history == nil {
		history = []*entity.TrackedMessage{}
	}
	blob, err := json.Marshal(&envelope{Version: SchemaVersion, History: history})
	if err != nil {
		return "", fmt.Errorf("can't marshal ledger: %w", err)
	}
	return string(blob), nil
}

func decodeEnvelope(blob string) ([]*entity.TrackedMessage, error) {
	var env envelope
	if err := json.Unmarshal([]byte(blob), &env); err != nil {
		return nil, fmt.Errorf("can't unmarshal ledger: %w", err)
	}
	switch env.Version {
	case 0:
		migrateV0(env.History)
	case SchemaVersion:
	default:
		return nil, fmt.Errorf("version %d: %w", env.Version, ErrUnsupportedSchema)
	}
	res := make([]*entity.TrackedMessage, 0, len(env.History))
	for _, msg := range env.History {
		if msg != nil {
			res = append(res, msg)
		}
	}
	return res, nil
}

// migrateV0 fills in fields that unversioned blobs could leave empty.
func migrateV0(history []*entity.TrackedMessage) {
	for _, msg := range history {
		if msg == nil {
			continue
		}
		if msg.Status == "" {
			msg.Status = entity.MessageStatusPending
		}
		if msg.MessageID == "" {
			msg.MessageID = entity.NoMessageID
		}
	}
}
