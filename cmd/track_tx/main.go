package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/ethclient"
	"github.com/omni/interchain-tracker/flow"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/message"
	"github.com/omni/interchain-tracker/repository"
)

var (
	configPath  = flag.String("config", "config.yml", "path to the config file")
	envFile     = flag.String("env", ".env", "optional env file to load before reading the config")
	originChain = flag.String("origin", "", "name of the chain the transaction was sent on")
	destChain   = flag.String("destination", "", "name of the chain the message goes to, taken from the dispatch event if empty")
	txHash      = flag.String("tx", "", "hash of the dispatching transaction")
	kind        = flag.String("kind", string(entity.MessageKindMessage), "message kind: bridge, message or interchain_account_call")
	description = flag.String("description", "", "description stored with the message")
	timeout     = flag.Duration("timeout", time.Minute, "how long to wait for the receipt")
)

func main() {
	flag.Parse()

	logger := logging.New()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WithError(err).Fatal("can't load env file")
	}

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	origin, ok := cfg.Chains[*originChain]
	if !ok {
		logger.WithField("chain", *originChain).Fatal("origin chain is not configured")
	}
	if *txHash == "" {
		logger.Fatal("tx is not specified")
	}
	msgKind := entity.MessageKind(*kind)
	switch msgKind {
	case entity.MessageKindBridge, entity.MessageKindMessage, entity.MessageKindInterchainAccountCall:
	default:
		logger.WithField("kind", *kind).Fatal("unknown message kind")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	clients := ethclient.NewPool(cfg.Chains, nil)
	defer clients.Close()

	hash := common.HexToHash(*txHash)
	receipt, err := flow.NewReceiptPoller(clients, 3*time.Second).AwaitReceipt(ctx, origin.ChainID, hash)
	if err != nil {
		logger.WithError(err).Fatal("can't get transaction receipt")
	}

	messageID := message.ExtractID(receipt.Logs)
	entry := logger.WithFields(logrus.Fields{
		"tx_hash":    hash,
		"message_id": messageID,
	})
	if !message.IsKnownID(messageID) {
		entry.Fatal("transaction has no dispatched message")
	}

	destination, err := resolveDestination(cfg, receipt.Logs)
	if err != nil {
		entry.WithError(err).Fatal("can't resolve destination chain")
	}
	if *description == "" {
		*description = fmt.Sprintf("Message from %s to %s", origin.Name, destination.Name)
	}

	store, err := repository.NewStore(ctx, cfg)
	if err != nil {
		entry.WithError(err).Fatal("can't open ledger storage")
	}
	defer store.Close()

	l := ledger.New(entry, store, cfg.Ledger)
	if err = l.Load(ctx); err != nil {
		entry.WithError(err).Fatal("can't load message ledger")
	}
	l.Append(ctx, &entity.TrackedMessage{
		MessageID:          messageID,
		OriginChainID:      origin.ChainID,
		DestinationChainID: destination.ChainID,
		Kind:               msgKind,
		Status:             entity.MessageStatusPending,
		OriginTxHash:       hash.Hex(),
		CreatedAt:          time.Now(),
		Description:        *description,
	})
	entry.Info("message is tracked")
}

var errUnknownDestination = errors.New("destination chain is not configured")

func resolveDestination(cfg *config.Config, logs []*types.Log) (*config.ChainConfig, error) {
	if *destChain != "" {
		chain, ok := cfg.Chains[*destChain]
		if !ok {
			return nil, fmt.Errorf("chain %s: %w", *destChain, errUnknownDestination)
		}
		return chain, nil
	}
	dispatch, err := message.FindDispatch(logs)
	if err != nil {
		return nil, fmt.Errorf("can't decode dispatch event: %w", err)
	}
	chain := cfg.GetChainByDomain(dispatch.Destination)
	if chain == nil {
		return nil, fmt.Errorf("domain %d: %w", dispatch.Destination, errUnknownDestination)
	}
	return chain, nil
}
