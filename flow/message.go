package flow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/contract"
	"github.com/omni/interchain-tracker/entity"
)

type MessageParams struct {
	Origin      *config.ChainConfig
	Destination *config.ChainConfig
	Recipient   common.Address
	Body        []byte
}

// MessageController sends an arbitrary message: submit -> confirm -> relay -> deliver.
type MessageController struct {
	baseController
	params *MessageParams
	quoter DispatchQuoter
	fee    *big.Int
}

func NewMessageController(deps *Deps, quoter DispatchQuoter, params *MessageParams) *MessageController {
	return &MessageController{
		baseController: baseController{
			deps:        deps,
			kind:        entity.MessageKindMessage,
			progress:    NewProgressState(StepSubmit, StepConfirm, StepRelay, StepDeliver),
			origin:      params.Origin,
			destination: params.Destination,
			description: messageDescription(params),
		},
		params: params,
		quoter: quoter,
	}
}

func messageDescription(params *MessageParams) string {
	dest := "?"
	if params.Destination != nil {
		dest = params.Destination.Name
	}
	return fmt.Sprintf("Send %d byte message from %s to %s", len(params.Body), params.Origin.Name, dest)
}

func (c *MessageController) Prepare(ctx context.Context) error {
	if c.params.Destination == nil {
		return ErrMissingDestination
	}
	if c.params.Origin.Mailbox == (common.Address{}) {
		return fmt.Errorf("mailbox on %s: %w", c.params.Origin.Name, ErrNoRouter)
	}
	fee, err := c.quoter.QuoteDispatch(ctx, c.params.Origin, c.params.Destination, c.params.Recipient, c.params.Body)
	if err != nil {
		return err
	}
	c.fee = fee
	return nil
}

// NextStep maps a failed confirmation back to submit, the transaction has to be sent again.
func (c *MessageController) NextStep() (StepID, bool) {
	cur, ok := c.progress.Current()
	if !ok || (cur.ID != StepSubmit && cur.ID != StepConfirm) {
		return "", false
	}
	if cur.ID == StepConfirm && cur.Status != StepStatusError {
		return "", false
	}
	return StepSubmit, true
}

func (c *MessageController) BuildStepCall(_ context.Context, step StepID) (*CallRequest, error) {
	if step != StepSubmit {
		return nil, fmt.Errorf("message %s: %w", step, ErrUnknownStep)
	}
	if c.params.Destination == nil || c.fee == nil {
		return nil, nil
	}
	if c.params.Origin.Mailbox == (common.Address{}) {
		return nil, fmt.Errorf("mailbox on %s: %w", c.params.Origin.Name, ErrNoRouter)
	}
	data, err := contract.EncodeDispatch(c.params.Destination.DomainID, contract.AddressToBytes32(c.params.Recipient), c.params.Body)
	if err != nil {
		return nil, err
	}
	return &CallRequest{
		Step:    step,
		ChainID: c.params.Origin.ChainID,
		To:      c.params.Origin.Mailbox,
		Data:    data,
		Value:   new(big.Int).Set(c.fee),
	}, nil
}

// OnStepSubmitted finishes submit as soon as the wallet accepted the
// transaction, confirm then waits for the receipt.
func (c *MessageController) OnStepSubmitted(step StepID, txHash common.Hash) {
	if err := c.progress.Complete(step, txHash.Hex()); err != nil {
		c.logger().WithError(err).Warn("can't complete submitted step")
		return
	}
	if err := c.progress.Activate(StepConfirm); err != nil {
		c.logger().WithError(err).Warn("can't start confirmation")
		return
	}
	if err := c.progress.SetTxHash(StepConfirm, txHash.Hex()); err != nil {
		c.logger().WithError(err).Warn("can't record submitted transaction")
	}
}

func (c *MessageController) OnStepSuccess(ctx context.Context, step StepID, receipt *types.Receipt) (StepID, error) {
	if step != StepSubmit {
		return "", fmt.Errorf("message %s: %w", step, ErrUnknownStep)
	}
	return "", c.onDispatched(ctx, StepConfirm, receipt)
}

func (c *MessageController) OnStepFailure(step StepID, err error) {
	if cur, ok := c.progress.Step(StepConfirm); ok && step == StepSubmit && cur.Status == StepStatusActive {
		step = StepConfirm
	}
	c.baseController.OnStepFailure(step, err)
}
