package flow

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/message"
)

// CallRequest is a transaction a step asks the wallet to send.
type CallRequest struct {
	Step    StepID         `json:"step"`
	ChainID uint64         `json:"chainId"`
	To      common.Address `json:"to"`
	Data    []byte         `json:"data"`
	Value   *big.Int       `json:"value"`
}

// Submitter sends calls and waits for them to be mined.
// Submit reports rejections with ErrUserRejected or ErrSimulationFailed.
type Submitter interface {
	Submit(ctx context.Context, call *CallRequest) (common.Hash, error)
	AwaitReceipt(ctx context.Context, chainID uint64, txHash common.Hash) (*types.Receipt, error)
}

// MessageTracker stores messages once their identifier is known.
type MessageTracker interface {
	Append(ctx context.Context, msg *entity.TrackedMessage)
}

// ProgressWatcher is told which progress state follows which message.
type ProgressWatcher interface {
	Watch(messageID string, progress *ProgressState)
}

type Controller interface {
	Kind() entity.MessageKind
	Progress() *ProgressState
	// Prepare validates the inputs and refreshes quotes before the next step.
	Prepare(ctx context.Context) error
	// NextStep is the step the user has to submit next, false when none is left.
	NextStep() (StepID, bool)
	// BuildStepCall returns nil without an error when inputs are still missing.
	BuildStepCall(ctx context.Context, step StepID) (*CallRequest, error)
	OnStepSubmitted(step StepID, txHash common.Hash)
	OnStepSuccess(ctx context.Context, step StepID, receipt *types.Receipt) (StepID, error)
	OnStepFailure(step StepID, err error)
}

// Deps bundles the collaborators every controller needs.
type Deps struct {
	Logger  logging.Logger
	Tracker MessageTracker
	Watcher ProgressWatcher
	Now     func() time.Time
}

type baseController struct {
	deps        *Deps
	kind        entity.MessageKind
	progress    *ProgressState
	origin      *config.ChainConfig
	destination *config.ChainConfig
	description string
}

func (c *baseController) Kind() entity.MessageKind {
	return c.kind
}

func (c *baseController) Progress() *ProgressState {
	return c.progress
}

func (c *baseController) logger() logging.Logger {
	fields := logrus.Fields{"kind": c.kind}
	if c.origin != nil {
		fields["origin_chain_id"] = c.origin.ChainID
	}
	if c.destination != nil {
		fields["destination_chain_id"] = c.destination.ChainID
	}
	return c.deps.Logger.WithFields(fields)
}

func (c *baseController) now() time.Time {
	if c.deps.Now != nil {
		return c.deps.Now()
	}
	return time.Now()
}

func (c *baseController) OnStepSubmitted(step StepID, txHash common.Hash) {
	if err := c.progress.SetTxHash(step, txHash.Hex()); err != nil {
		c.logger().WithError(err).Warn("can't record submitted transaction")
	}
}

func (c *baseController) OnStepFailure(step StepID, err error) {
	c.logger().WithError(err).WithField("step", step).Warn("flow step failed")
	if failErr := c.progress.Fail(step, err); failErr != nil {
		c.logger().WithError(failErr).Error("can't mark step as failed")
	}
}

// onDispatched handles the receipt of the step that sends the cross-chain message.
// Only a known message id is tracked; the view switches to progress only then.
func (c *baseController) onDispatched(ctx context.Context, step StepID, receipt *types.Receipt) error {
	txHash := receipt.TxHash.Hex()
	if err := c.progress.Complete(step, txHash); err != nil {
		return err
	}

	logger := c.logger().WithField("origin_tx_hash", txHash)
	messageID := message.ExtractID(receipt.Logs)
	if !message.IsKnownID(messageID) {
		logger.Warn("dispatch receipt has no message id, delivery won't be tracked")
		c.progress.MarkUntracked()
		return nil
	}

	// relay goes active before the message is visible to the reconciler,
	// whose first check may already report it delivered.
	c.progress.ShowProgress(messageID)
	if err := c.progress.Activate(StepRelay); err != nil {
		return err
	}
	c.deps.Watcher.Watch(messageID, c.progress)
	c.deps.Tracker.Append(ctx, &entity.TrackedMessage{
		MessageID:          messageID,
		OriginChainID:      c.origin.ChainID,
		DestinationChainID: c.destination.ChainID,
		Kind:               c.kind,
		Status:             entity.MessageStatusPending,
		OriginTxHash:       txHash,
		CreatedAt:          c.now(),
		Description:        c.description,
	})
	logger.WithField("message_id", messageID).Info("dispatched cross-chain message")
	return nil
}
