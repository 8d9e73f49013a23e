package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/repository/memory"
)

const testKey = "interchain-tracker:history"

var errStoreDown = errors.New("store is down")

type failingStore struct {
	*memory.KeyValueStore
}

func (s *failingStore) SetItem(context.Context, string, string) error {
	return errStoreDown
}

func testConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		Backend:     config.LedgerBackendMemory,
		Key:         testKey,
		Retention:   50,
		SaveTimeout: time.Second,
	}
}

func newMessage(id string) *entity.TrackedMessage {
	return &entity.TrackedMessage{
		MessageID:          id,
		OriginChainID:      11155111,
		DestinationChainID: 43113,
		Kind:               entity.MessageKindBridge,
		Status:             entity.MessageStatusPending,
		OriginTxHash:       "0x01",
		CreatedAt:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:        "Bridge 1 USDC",
	}
}

func statusPtr(s entity.MessageStatus) *entity.MessageStatus {
	return &s
}

func strPtr(s string) *string {
	return &s
}

func TestLedger_AppendIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	l.Append(ctx, newMessage("0xaa"))
	l.Append(ctx, newMessage("0xbb"))
	l.Append(ctx, newMessage("0xaa"))

	all := l.All()
	require.Len(t, all, 2)
	require.Equal(t, "0xaa", all[0].MessageID)
	require.Equal(t, "0xbb", all[1].MessageID)
}

func TestLedger_AppendKeepsTerminalStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	l.Append(ctx, newMessage("0xaa"))
	require.True(t, l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{
		Status:            statusPtr(entity.MessageStatusDelivered),
		DestinationTxHash: strPtr("0xdef"),
	}))
	l.Append(ctx, newMessage("0xaa"))

	msg, ok := l.Get("0xaa")
	require.True(t, ok)
	require.Equal(t, entity.MessageStatusDelivered, msg.Status)
	require.Equal(t, "0xdef", *msg.DestinationTxHash)
}

func TestLedger_SentinelIDsAreNotDeduplicated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	l.Append(ctx, newMessage(entity.NoMessageID))
	l.Append(ctx, newMessage(entity.NoMessageID))

	require.Len(t, l.All(), 2)
	require.Empty(t, l.PendingIDs())
}

func TestLedger_Retention(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	for i := 0; i < 60; i++ {
		l.Append(ctx, newMessage(fmt.Sprintf("0x%02x", i)))
	}

	all := l.All()
	require.Len(t, all, 50)
	require.Equal(t, "0x3b", all[0].MessageID)
	require.Equal(t, "0x0a", all[49].MessageID)
	_, ok := l.Get("0x09")
	require.False(t, ok)
}

func TestLedger_StatusIsMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	l.Append(ctx, newMessage("0xaa"))
	require.True(t, l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{Status: statusPtr(entity.MessageStatusFailed)}))

	checkedAt := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.True(t, l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{
		Status:        statusPtr(entity.MessageStatusPending),
		LastCheckedAt: &checkedAt,
	}))
	require.True(t, l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{Status: statusPtr(entity.MessageStatusDelivered)}))

	msg, ok := l.Get("0xaa")
	require.True(t, ok)
	require.Equal(t, entity.MessageStatusFailed, msg.Status)
	require.Equal(t, checkedAt, *msg.LastCheckedAt)

	require.False(t, l.UpdateByID(ctx, "0xbb", &entity.MessagePatch{Status: statusPtr(entity.MessageStatusDelivered)}))
}

func TestLedger_PendingIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	l.Append(ctx, newMessage("0xaa"))
	l.Append(ctx, newMessage("0xbb"))
	l.Append(ctx, newMessage("0xcc"))
	l.UpdateByID(ctx, "0xbb", &entity.MessagePatch{Status: statusPtr(entity.MessageStatusDelivered)})

	require.Equal(t, []string{"0xcc", "0xaa"}, l.PendingIDs())
	require.Equal(t, l.PendingIDs(), l.PendingIDs())
	require.Equal(t, "0xcc,0xaa", ledger.PendingKey(l.PendingIDs()))

	pending := l.Pending()
	require.Len(t, pending, 2)
	require.Equal(t, "0xcc", pending[0].MessageID)
}

func TestLedger_RemoveAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewKeyValueStore()
	l := ledger.New(logging.Discard(), store, testConfig())

	l.Append(ctx, newMessage("0xaa"))
	l.Append(ctx, newMessage("0xbb"))
	require.True(t, l.RemoveByID(ctx, "0xaa"))
	require.False(t, l.RemoveByID(ctx, "0xaa"))
	require.Len(t, l.All(), 1)

	l.Clear(ctx)
	require.Empty(t, l.All())
	_, ok, err := store.GetItem(ctx, testKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLedger_Persistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewKeyValueStore()

	l := ledger.New(logging.Discard(), store, testConfig())
	require.NoError(t, l.Load(ctx))
	l.Append(ctx, newMessage("0xaa"))
	l.Append(ctx, newMessage("0xbb"))
	l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{
		Status: statusPtr(entity.MessageStatusDelivered),
		Body:   strPtr("hello"),
	})

	blob, ok, err := store.GetItem(ctx, testKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, blob, `"version":1`)

	restored := ledger.New(logging.Discard(), store, testConfig())
	require.NoError(t, restored.Load(ctx))
	require.Equal(t, l.All(), restored.All())
	require.Equal(t, []string{"0xbb"}, restored.PendingIDs())
}

func TestLedger_LoadLegacyEnvelope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewKeyValueStore()
	require.NoError(t, store.SetItem(ctx, testKey, `{"history":[
		{"messageId":"0xaa","originChainId":1,"destinationChainId":2,"kind":"message","originTxHash":"0x01","createdAt":"2024-01-01T00:00:00Z","description":"hi"},
		{"messageId":"0xbb","originChainId":1,"destinationChainId":2,"kind":"message","status":"delivered","originTxHash":"0x02","createdAt":"2024-01-01T00:00:00Z","description":"hi"}
	]}`))

	l := ledger.New(logging.Discard(), store, testConfig())
	require.NoError(t, l.Load(ctx))
	require.Len(t, l.All(), 2)
	require.Equal(t, []string{"0xaa"}, l.PendingIDs())
}

func TestLedger_LoadNewerSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewKeyValueStore()
	require.NoError(t, store.SetItem(ctx, testKey, `{"version":2,"history":[]}`))

	l := ledger.New(logging.Discard(), store, testConfig())
	require.ErrorIs(t, l.Load(ctx), ledger.ErrUnsupportedSchema)
}

func TestLedger_LoadCorruptedBlob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.NewKeyValueStore()
	require.NoError(t, store.SetItem(ctx, testKey, `{not json`))

	l := ledger.New(logging.Discard(), store, testConfig())
	require.NoError(t, l.Load(ctx))
	require.Empty(t, l.All())
}

func TestLedger_SaveFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), &failingStore{memory.NewKeyValueStore()}, testConfig())

	l.Append(ctx, newMessage("0xaa"))
	require.True(t, l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{Status: statusPtr(entity.MessageStatusDelivered)}))

	msg, ok := l.Get("0xaa")
	require.True(t, ok)
	require.Equal(t, entity.MessageStatusDelivered, msg.Status)
}

func TestLedger_Subscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	ch, unsubscribe := l.Subscribe()
	l.Append(ctx, newMessage("0xaa"))
	l.Append(ctx, newMessage("0xbb"))

	select {
	case <-ch:
	default:
		t.Fatal("expected a change notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	unsubscribe()
	l.Append(ctx, newMessage("0xcc"))
	select {
	case <-ch:
		t.Fatal("unexpected notification after unsubscribe")
	default:
	}
}

func TestLedger_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), testConfig())

	l.Append(ctx, newMessage("0xaa"))
	msg, _ := l.Get("0xaa")
	msg.Status = entity.MessageStatusFailed

	stored, _ := l.Get("0xaa")
	require.Equal(t, entity.MessageStatusPending, stored.Status)
}
