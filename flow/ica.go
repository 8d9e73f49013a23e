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

type InterchainAccountCallParams struct {
	Origin      *config.ChainConfig
	Destination *config.ChainConfig
	Calls       []contract.RemoteCall
}

// InterchainAccountCallController runs calls from the sender's account on
// the destination chain: submit -> relay -> deliver.
type InterchainAccountCallController struct {
	baseController
	params *InterchainAccountCallParams
	quoter RemoteCallQuoter
	fee    *big.Int
}

func NewInterchainAccountCallController(deps *Deps, quoter RemoteCallQuoter, params *InterchainAccountCallParams) *InterchainAccountCallController {
	return &InterchainAccountCallController{
		baseController: baseController{
			deps:        deps,
			kind:        entity.MessageKindInterchainAccountCall,
			progress:    NewProgressState(StepSubmit, StepRelay, StepDeliver),
			origin:      params.Origin,
			destination: params.Destination,
			description: icaDescription(params),
		},
		params: params,
		quoter: quoter,
	}
}

func icaDescription(params *InterchainAccountCallParams) string {
	dest := "?"
	if params.Destination != nil {
		dest = params.Destination.Name
	}
	return fmt.Sprintf("Run %d remote call(s) from %s on %s", len(params.Calls), params.Origin.Name, dest)
}

func (c *InterchainAccountCallController) router() common.Address {
	return c.params.Origin.InterchainAccountRouter
}

func (c *InterchainAccountCallController) Prepare(ctx context.Context) error {
	if c.params.Destination == nil {
		return ErrMissingDestination
	}
	if c.router() == (common.Address{}) {
		return fmt.Errorf("interchain account router on %s: %w", c.params.Origin.Name, ErrNoRouter)
	}
	fee, err := c.quoter.QuoteRemoteCall(ctx, c.params.Origin, c.params.Destination)
	if err != nil {
		return err
	}
	c.fee = fee
	return nil
}

func (c *InterchainAccountCallController) NextStep() (StepID, bool) {
	cur, ok := c.progress.Current()
	if !ok || cur.ID != StepSubmit {
		return "", false
	}
	return StepSubmit, true
}

func (c *InterchainAccountCallController) BuildStepCall(_ context.Context, step StepID) (*CallRequest, error) {
	if step != StepSubmit {
		return nil, fmt.Errorf("interchain account call %s: %w", step, ErrUnknownStep)
	}
	if c.params.Destination == nil || c.fee == nil || len(c.params.Calls) == 0 {
		return nil, nil
	}
	if c.router() == (common.Address{}) {
		return nil, nil
	}
	data, err := contract.EncodeCallRemote(c.params.Destination.DomainID, c.params.Calls)
	if err != nil {
		return nil, err
	}
	return &CallRequest{
		Step:    step,
		ChainID: c.params.Origin.ChainID,
		To:      c.router(),
		Data:    data,
		Value:   new(big.Int).Set(c.fee),
	}, nil
}

func (c *InterchainAccountCallController) OnStepSuccess(ctx context.Context, step StepID, receipt *types.Receipt) (StepID, error) {
	if step != StepSubmit {
		return "", fmt.Errorf("interchain account call %s: %w", step, ErrUnknownStep)
	}
	return "", c.onDispatched(ctx, StepSubmit, receipt)
}
