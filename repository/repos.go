package repository

import (
	"context"
	"fmt"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/db"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/repository/file"
	"github.com/omni/interchain-tracker/repository/memory"
	"github.com/omni/interchain-tracker/repository/postgres"
	"github.com/omni/interchain-tracker/repository/redis"
)

// Store is a ledger persistence backend together with its cleanup hook.
type Store struct {
	entity.KeyValueStore
	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendMemory:
		return &Store{KeyValueStore: memory.NewKeyValueStore()}, nil
	case config.LedgerBackendFile:
		store, err := file.NewKeyValueStore(cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		return &Store{KeyValueStore: store}, nil
	case config.LedgerBackendPostgres:
		dbConn, err := db.ConnectToDBAndMigrate(ctx, cfg.DBConfig)
		if err != nil {
			return nil, err
		}
		return &Store{KeyValueStore: postgres.NewKeyValueStore("kv_items", dbConn), close: dbConn.Close}, nil
	case config.LedgerBackendRedis:
		store, err := redis.NewKeyValueStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Store{KeyValueStore: store, close: store.Close}, nil
	default:
		return nil, fmt.Errorf("backend %q: %w", cfg.Ledger.Backend, config.ErrInvalidBackend)
	}
}
