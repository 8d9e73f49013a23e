package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/contract"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/ethclient"
	"github.com/omni/interchain-tracker/explorer"
)

var (
	ErrUnknownDestination = errors.New("unknown destination chain")
	ErrNoMailbox          = errors.New("destination chain has no mailbox configured")
)

// Backend answers whether a tracked message reached its destination.
type Backend interface {
	Mode() config.Mode
	Check(ctx context.Context, msg *entity.TrackedMessage) (*entity.DeliveryStatus, error)
}

type StatusFetcher interface {
	GetStatus(ctx context.Context, messageID string, originChainID uint64) (*entity.DeliveryStatus, error)
}

// HostedBackend asks the hosted indexing API.
type HostedBackend struct {
	explorer StatusFetcher
}

func NewHostedBackend(explorer StatusFetcher) *HostedBackend {
	return &HostedBackend{explorer: explorer}
}

func (b *HostedBackend) Mode() config.Mode {
	return config.ModeHosted
}

func (b *HostedBackend) Check(ctx context.Context, msg *entity.TrackedMessage) (*entity.DeliveryStatus, error) {
	status, err := b.explorer.GetStatus(ctx, msg.MessageID, msg.OriginChainID)
	if err != nil {
		return nil, fmt.Errorf("can't get message status from explorer: %w", err)
	}
	return status, nil
}

// ClientSource hands out read-only clients by chain id.
type ClientSource interface {
	Get(chainID uint64) (ethclient.Client, error)
}

// SelfHostedBackend reads delivered(bytes32) from the destination mailbox,
// through a client bound to the message's destination chain.
type SelfHostedBackend struct {
	cfg     *config.Config
	clients ClientSource
}

func NewSelfHostedBackend(cfg *config.Config, clients ClientSource) *SelfHostedBackend {
	return &SelfHostedBackend{
		cfg:     cfg,
		clients: clients,
	}
}

func (b *SelfHostedBackend) Mode() config.Mode {
	return config.ModeSelfHosted
}

func (b *SelfHostedBackend) Check(ctx context.Context, msg *entity.TrackedMessage) (*entity.DeliveryStatus, error) {
	chain := b.cfg.GetChainConfig(msg.DestinationChainID)
	if chain == nil {
		return nil, fmt.Errorf("chain id %d: %w", msg.DestinationChainID, ErrUnknownDestination)
	}
	if chain.Mailbox == (common.Address{}) {
		return nil, fmt.Errorf("chain %s: %w", chain.Name, ErrNoMailbox)
	}
	client, err := b.clients.Get(chain.ChainID)
	if err != nil {
		return nil, err
	}
	delivered, err := contract.NewMailboxContract(client, chain.Mailbox).Delivered(ctx, common.HexToHash(msg.MessageID))
	if err != nil {
		return nil, fmt.Errorf("can't read delivery state on %s: %w", chain.Name, err)
	}
	if delivered {
		return &entity.DeliveryStatus{Status: entity.MessageStatusDelivered}, nil
	}
	return &entity.DeliveryStatus{Status: entity.MessageStatusPending}, nil
}

// NewBackend picks the backend for the configured mode.
func NewBackend(cfg *config.Config, clients ClientSource) (Backend, error) {
	switch cfg.Mode {
	case config.ModeHosted:
		return NewHostedBackend(explorer.NewClient(cfg.Explorer)), nil
	case config.ModeSelfHosted:
		return NewSelfHostedBackend(cfg, clients), nil
	default:
		return nil, fmt.Errorf("mode %q: %w", cfg.Mode, config.ErrInvalidMode)
	}
}
