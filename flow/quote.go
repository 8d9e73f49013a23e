package flow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/contract"
	"github.com/omni/interchain-tracker/ethclient"
)

type Route struct {
	Token       *config.TokenConfig
	Destination *config.ChainConfig
}

type Quote struct {
	OutputAmount      *big.Int
	RequiredAllowance *big.Int
	InterchainGasFee  *big.Int
	RouterAddress     common.Address
}

type QuoteService interface {
	GetQuote(ctx context.Context, route *Route, amount *big.Int) (*Quote, error)
}

type AllowanceReader interface {
	Allowance(ctx context.Context, chainID uint64, token, owner, spender common.Address) (*big.Int, error)
}

type DispatchQuoter interface {
	QuoteDispatch(ctx context.Context, origin, destination *config.ChainConfig, recipient common.Address, body []byte) (*big.Int, error)
}

type RemoteCallQuoter interface {
	QuoteRemoteCall(ctx context.Context, origin, destination *config.ChainConfig) (*big.Int, error)
}

type ClientSource interface {
	Get(chainID uint64) (ethclient.Client, error)
}

// RouterQuoter answers quotes from the on-chain views of routers and mailboxes.
// Warp routes move tokens one to one, so the output equals the input amount.
type RouterQuoter struct {
	clients ClientSource
}

func NewRouterQuoter(clients ClientSource) *RouterQuoter {
	return &RouterQuoter{clients: clients}
}

func (q *RouterQuoter) GetQuote(ctx context.Context, route *Route, amount *big.Int) (*Quote, error) {
	token := route.Token
	if token.Router == (common.Address{}) {
		return nil, fmt.Errorf("token %s: %w", token.ID, ErrNoRouter)
	}
	fee, err := q.QuoteGasPayment(ctx, token.Chain.ChainID, token.Router, route.Destination)
	if err != nil {
		return nil, err
	}
	required := new(big.Int)
	if token.Standard == config.TokenStandardCollateral {
		required.Set(amount)
	}
	return &Quote{
		OutputAmount:      new(big.Int).Set(amount),
		RequiredAllowance: required,
		InterchainGasFee:  fee,
		RouterAddress:     token.Router,
	}, nil
}

func (q *RouterQuoter) QuoteGasPayment(ctx context.Context, chainID uint64, router common.Address, destination *config.ChainConfig) (*big.Int, error) {
	client, err := q.clients.Get(chainID)
	if err != nil {
		return nil, err
	}
	fee, err := contract.NewTokenRouterContract(client, router).QuoteGasPayment(ctx, destination.DomainID)
	if err != nil {
		return nil, fmt.Errorf("can't quote interchain gas payment: %w", err)
	}
	return fee, nil
}

func (q *RouterQuoter) QuoteDispatch(ctx context.Context, origin, destination *config.ChainConfig, recipient common.Address, body []byte) (*big.Int, error) {
	client, err := q.clients.Get(origin.ChainID)
	if err != nil {
		return nil, err
	}
	mailbox := contract.NewMailboxContract(client, origin.Mailbox)
	fee, err := mailbox.QuoteDispatch(ctx, destination.DomainID, contract.AddressToBytes32(recipient), body)
	if err != nil {
		return nil, fmt.Errorf("can't quote dispatch: %w", err)
	}
	return fee, nil
}

func (q *RouterQuoter) Allowance(ctx context.Context, chainID uint64, token, owner, spender common.Address) (*big.Int, error) {
	client, err := q.clients.Get(chainID)
	if err != nil {
		return nil, err
	}
	allowance, err := contract.NewERC20Contract(client, token).Allowance(ctx, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("can't read allowance: %w", err)
	}
	return allowance, nil
}

func (q *RouterQuoter) QuoteRemoteCall(ctx context.Context, origin, destination *config.ChainConfig) (*big.Int, error) {
	client, err := q.clients.Get(origin.ChainID)
	if err != nil {
		return nil, err
	}
	fee, err := contract.NewICARouterContract(client, origin.InterchainAccountRouter).QuoteGasPayment(ctx, destination.DomainID)
	if err != nil {
		return nil, fmt.Errorf("can't quote remote call gas payment: %w", err)
	}
	return fee, nil
}
