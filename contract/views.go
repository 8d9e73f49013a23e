package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/interchain-tracker/contract/interchainabi"
	"github.com/omni/interchain-tracker/ethclient"
)

type MailboxContract struct {
	*Contract
}

func NewMailboxContract(client ethclient.Client, addr common.Address) *MailboxContract {
	return &MailboxContract{NewContract(client, addr, interchainabi.MailboxABI)}
}

// Delivered reports whether the mailbox has processed the message with the given id.
func (c *MailboxContract) Delivered(ctx context.Context, messageID common.Hash) (bool, error) {
	res, err := c.Call(ctx, "delivered", messageID)
	if err != nil {
		return false, err
	}
	delivered, ok := firstOutput[bool](res)
	if !ok {
		return false, fmt.Errorf("delivered(bytes32): %w", ErrUnexpectedOutput)
	}
	return delivered, nil
}

func (c *MailboxContract) QuoteDispatch(ctx context.Context, domain uint32, recipient common.Hash, body []byte) (*big.Int, error) {
	res, err := c.Call(ctx, "quoteDispatch", domain, recipient, body)
	if err != nil {
		return nil, err
	}
	fee, ok := firstOutput[*big.Int](res)
	if !ok {
		return nil, fmt.Errorf("quoteDispatch(uint32,bytes32,bytes): %w", ErrUnexpectedOutput)
	}
	return fee, nil
}

type ERC20Contract struct {
	*Contract
}

func NewERC20Contract(client ethclient.Client, addr common.Address) *ERC20Contract {
	return &ERC20Contract{NewContract(client, addr, interchainabi.ERC20ABI)}
}

func (c *ERC20Contract) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	res, err := c.Call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := firstOutput[*big.Int](res)
	if !ok {
		return nil, fmt.Errorf("allowance(address,address): %w", ErrUnexpectedOutput)
	}
	return allowance, nil
}

// RouterContract covers both token routers and interchain account routers,
// which share the quoteGasPayment view.
type RouterContract struct {
	*Contract
}

func NewTokenRouterContract(client ethclient.Client, addr common.Address) *RouterContract {
	return &RouterContract{NewContract(client, addr, interchainabi.TokenRouterABI)}
}

func NewICARouterContract(client ethclient.Client, addr common.Address) *RouterContract {
	return &RouterContract{NewContract(client, addr, interchainabi.ICARouterABI)}
}

func (c *RouterContract) QuoteGasPayment(ctx context.Context, domain uint32) (*big.Int, error) {
	res, err := c.Call(ctx, "quoteGasPayment", domain)
	if err != nil {
		return nil, err
	}
	fee, ok := firstOutput[*big.Int](res)
	if !ok {
		return nil, fmt.Errorf("quoteGasPayment(uint32): %w", ErrUnexpectedOutput)
	}
	return fee, nil
}

func firstOutput[T any](res []interface{}) (T, bool) {
	var zero T
	if len(res) == 0 {
		return zero, false
	}
	v, ok := res[0].(T)
	return v, ok
}
