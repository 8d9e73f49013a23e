package flow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/contract"
	"github.com/omni/interchain-tracker/entity"
)

type BridgeParams struct {
	Token       *config.TokenConfig
	Destination *config.ChainConfig
	Sender      common.Address
	Recipient   common.Address
	Amount      *big.Int
}

// BridgeController moves a token to another chain: [approve] -> transfer -> relay.
type BridgeController struct {
	baseController
	params     *BridgeParams
	quotes     QuoteService
	allowances AllowanceReader
	quote      *Quote
	prepared   bool
}

func NewBridgeController(deps *Deps, quotes QuoteService, allowances AllowanceReader, params *BridgeParams) *BridgeController {
	return &BridgeController{
		baseController: baseController{
			deps:        deps,
			kind:        entity.MessageKindBridge,
			progress:    NewProgressState(StepTransfer, StepRelay),
			origin:      params.Token.Chain,
			destination: params.Destination,
			description: bridgeDescription(params),
		},
		params:     params,
		quotes:     quotes,
		allowances: allowances,
	}
}

func bridgeDescription(params *BridgeParams) string {
	dest := "?"
	if params.Destination != nil {
		dest = params.Destination.Name
	}
	return fmt.Sprintf("Bridge %s %s from %s to %s",
		FormatAmount(params.Amount, params.Token.Decimals), params.Token.Symbol, params.Token.ChainName, dest)
}

// ValidateRoute checks that the token can go to the selected destination.
func (c *BridgeController) ValidateRoute() error {
	if c.params.Destination == nil {
		return ErrMissingDestination
	}
	if !c.params.Token.CanBridgeTo(c.params.Destination.Name) {
		return fmt.Errorf("%s to %s: %w", c.params.Token.ID, c.params.Destination.Name, ErrRouteUnavailable)
	}
	if c.params.Token.Router == (common.Address{}) {
		return fmt.Errorf("token %s: %w", c.params.Token.ID, ErrNoRouter)
	}
	return nil
}

func (c *BridgeController) Prepare(ctx context.Context) error {
	if err := c.ValidateRoute(); err != nil {
		return err
	}
	quote, err := c.quotes.GetQuote(ctx, &Route{Token: c.params.Token, Destination: c.params.Destination}, c.params.Amount)
	if err != nil {
		return fmt.Errorf("can't get bridge quote: %w", err)
	}
	c.quote = quote
	if c.prepared {
		return nil
	}

	needApprove, err := c.needsApproval(ctx)
	if err != nil {
		return err
	}
	if needApprove {
		c.progress = NewProgressState(StepApprove, StepTransfer, StepRelay)
	}
	c.prepared = true
	return nil
}

func (c *BridgeController) needsApproval(ctx context.Context) (bool, error) {
	required := c.quote.RequiredAllowance
	if c.params.Token.Standard == config.TokenStandardNative || required == nil || required.Sign() == 0 {
		return false, nil
	}
	allowance, err := c.allowances.Allowance(ctx, c.origin.ChainID, c.params.Token.Address, c.params.Sender, c.quote.RouterAddress)
	if err != nil {
		return false, err
	}
	c.logger().WithFields(logrus.Fields{
		"allowance": allowance.String(),
		"required":  required.String(),
	}).Debug("checked token allowance")
	return allowance.Cmp(required) < 0, nil
}

func (c *BridgeController) NextStep() (StepID, bool) {
	cur, ok := c.progress.Current()
	if !ok || (cur.ID != StepApprove && cur.ID != StepTransfer) {
		return "", false
	}
	return cur.ID, true
}

func (c *BridgeController) BuildStepCall(_ context.Context, step StepID) (*CallRequest, error) {
	if c.params.Destination == nil || c.quote == nil || c.params.Amount == nil {
		return nil, nil
	}
	if !c.params.Token.CanBridgeTo(c.params.Destination.Name) {
		return nil, fmt.Errorf("%s to %s: %w", c.params.Token.ID, c.params.Destination.Name, ErrRouteUnavailable)
	}
	switch step {
	case StepApprove:
		data, err := contract.EncodeApprove(c.quote.RouterAddress, c.quote.RequiredAllowance)
		if err != nil {
			return nil, err
		}
		return &CallRequest{
			Step:    step,
			ChainID: c.origin.ChainID,
			To:      c.params.Token.Address,
			Data:    data,
			Value:   new(big.Int),
		}, nil
	case StepTransfer:
		recipient := c.params.Recipient
		if recipient == (common.Address{}) {
			recipient = c.params.Sender
		}
		data, err := contract.EncodeTransferRemote(c.params.Destination.DomainID, contract.AddressToBytes32(recipient), c.params.Amount)
		if err != nil {
			return nil, err
		}
		value := new(big.Int)
		if c.quote.InterchainGasFee != nil {
			value.Set(c.quote.InterchainGasFee)
		}
		if c.params.Token.Standard == config.TokenStandardNative {
			value.Add(value, c.params.Amount)
		}
		return &CallRequest{
			Step:    step,
			ChainID: c.origin.ChainID,
			To:      c.quote.RouterAddress,
			Data:    data,
			Value:   value,
		}, nil
	default:
		return nil, fmt.Errorf("bridge %s: %w", step, ErrUnknownStep)
	}
}

func (c *BridgeController) OnStepSuccess(ctx context.Context, step StepID, receipt *types.Receipt) (StepID, error) {
	switch step {
	case StepApprove:
		if err := c.progress.Complete(StepApprove, receipt.TxHash.Hex()); err != nil {
			return "", err
		}
		return StepTransfer, nil
	case StepTransfer:
		return "", c.onDispatched(ctx, StepTransfer, receipt)
	default:
		return "", fmt.Errorf("bridge %s: %w", step, ErrUnknownStep)
	}
}

// FormatAmount renders a base-unit amount with the token's decimals.
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}
	s := new(big.Float).SetInt(amount)
	s.Quo(s, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	return s.Text('f', -1)
}
