package ethclient

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/omni/interchain-tracker/config"
)

var ErrUnknownChain = errors.New("no rpc endpoint for chain")

type DialFunc func(url string, timeout time.Duration, chainID uint64) (Client, error)

type endpoint struct {
	url     string
	timeout time.Duration
}

// Pool lazily dials one read-only client per chain id and reuses it.
type Pool struct {
	dial      DialFunc
	endpoints map[uint64]endpoint
	mu        sync.Mutex
	clients   map[uint64]Client
}

func NewPool(chains map[string]*config.ChainConfig, dial DialFunc) *Pool {
	if dial == nil {
		dial = NewClient
	}
	endpoints := make(map[uint64]endpoint, len(chains))
	for _, chain := range chains {
		if chain.RPC != nil && chain.RPC.Host != "" {
			endpoints[chain.ChainID] = endpoint{url: chain.RPC.Host, timeout: chain.RPC.Timeout}
		}
	}
	return &Pool{
		dial:      dial,
		endpoints: endpoints,
		clients:   make(map[uint64]Client),
	}
}

func (p *Pool) Get(chainID uint64) (Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[chainID]; ok {
		return client, nil
	}
	ep, ok := p.endpoints[chainID]
	if !ok {
		return nil, fmt.Errorf("chain id %d: %w", chainID, ErrUnknownChain)
	}
	client, err := p.dial(ep.url, ep.timeout, chainID)
	if err != nil {
		return nil, fmt.Errorf("can't dial chain %d: %w", chainID, err)
	}
	p.clients[chainID] = client
	return client, nil
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, client := range p.clients {
		client.Close()
		delete(p.clients, id)
	}
}
