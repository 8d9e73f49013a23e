package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/interchain-tracker/db"
	"github.com/omni/interchain-tracker/entity"
)

type kvItemsRepo basePostgresRepo

func NewKeyValueStore(table string, db *db.DB) entity.KeyValueStore {
	return (*kvItemsRepo)(newBasePostgresRepo(table, db))
}

func (r *kvItemsRepo) GetItem(ctx context.Context, key string) (string, bool, error) {
	q, args, err := sq.Select("value").
		From(r.table).
		Where(sq.Eq{"key": key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("can't build query: %w", err)
	}
	var value string
	err = r.db.GetContext(ctx, &value, q, args...)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("can't get kv item: %w", err)
	}
	return value, true, nil
}

func (r *kvItemsRepo) SetItem(ctx context.Context, key, value string) error {
	q, args, err := sq.Insert(r.table).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET updated_at = NOW(), value = EXCLUDED.value").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't upsert kv item: %w", err)
	}
	return nil
}

func (r *kvItemsRepo) RemoveItem(ctx context.Context, key string) error {
	q, args, err := sq.Delete(r.table).
		Where(sq.Eq{"key": key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't delete kv item: %w", err)
	}
	return nil
}
