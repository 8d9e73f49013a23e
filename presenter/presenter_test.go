package presenter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/flow"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/presenter"
	"github.com/omni/interchain-tracker/repository/memory"
)

func newTestPresenter(t *testing.T) (*presenter.Presenter, *ledger.Ledger, *flow.Registry) {
	t.Helper()
	cfg := &config.Config{Chains: map[string]*config.ChainConfig{
		"sepolia": {Name: "sepolia", ChainID: 11155111, ExplorerTxURL: "https://sepolia.etherscan.io/tx/%s"},
		"fuji":    {Name: "fuji", ChainID: 43113, ExplorerTxURL: "https://testnet.snowtrace.io/tx"},
	}}
	l := ledger.New(logging.Discard(), memory.NewKeyValueStore(), &config.LedgerConfig{
		Key:         "history",
		Retention:   50,
		SaveTimeout: time.Second,
	})
	registry := flow.NewRegistry()
	return presenter.NewPresenter(logging.Discard(), cfg, l, registry), l, registry
}

func trackedMessage(id string, kind entity.MessageKind) *entity.TrackedMessage {
	return &entity.TrackedMessage{
		MessageID:          id,
		OriginChainID:      11155111,
		DestinationChainID: 43113,
		Kind:               kind,
		Status:             entity.MessageStatusPending,
		OriginTxHash:       "0x01",
		CreatedAt:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func do(t *testing.T, p *presenter.Presenter, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPresenter_History(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, l, _ := newTestPresenter(t)

	l.Append(ctx, trackedMessage("0xaa", entity.MessageKindBridge))
	l.Append(ctx, trackedMessage("0xbb", entity.MessageKindMessage))
	destTx := "0xdef"
	delivered := entity.MessageStatusDelivered
	l.UpdateByID(ctx, "0xaa", &entity.MessagePatch{Status: &delivered, DestinationTxHash: &destTx})

	rec := do(t, p, http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var res presenter.HistoryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Messages, 2)
	require.Equal(t, 1, res.Pending)
	require.Equal(t, "0xbb", res.Messages[0].MessageID)
	require.Equal(t, "https://sepolia.etherscan.io/tx/0x01", res.Messages[1].OriginTxLink)
	require.Equal(t, "https://testnet.snowtrace.io/tx/0xdef", res.Messages[1].DestinationTxLink)

	rec = do(t, p, http.MethodGet, "/history?kind=bridge")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Messages, 1)
	require.Equal(t, "0xaa", res.Messages[0].MessageID)

	rec = do(t, p, http.MethodGet, "/history?status=unknown")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, p, http.MethodGet, "/history/pending")
	var pending presenter.PendingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Equal(t, []string{"0xbb"}, pending.MessageIDs)
}

func TestPresenter_Message(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, l, _ := newTestPresenter(t)
	l.Append(ctx, trackedMessage("0xaa", entity.MessageKindBridge))

	rec := do(t, p, http.MethodGet, "/history/0xaa")
	require.Equal(t, http.StatusOK, rec.Code)
	var info presenter.MessageInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "0xaa", info.MessageID)
	require.Equal(t, entity.MessageStatusPending, info.Status)

	rec = do(t, p, http.MethodGet, "/history/0xff")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, p, http.MethodDelete, "/history/0xaa")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, l.All())

	l.Append(ctx, trackedMessage("0xbb", entity.MessageKindBridge))
	rec = do(t, p, http.MethodDelete, "/history")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, l.All())
}

func TestPresenter_Sessions(t *testing.T) {
	t.Parallel()
	p, l, registry := newTestPresenter(t)

	origin := &config.ChainConfig{Name: "sepolia", ChainID: 11155111}
	c := flow.NewMessageController(&flow.Deps{Logger: logging.Discard(), Tracker: l, Watcher: registry}, nil, &flow.MessageParams{Origin: origin})
	session := registry.Open(c)

	rec := do(t, p, http.MethodGet, "/sessions/"+session.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var view flow.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, entity.MessageKindMessage, view.Kind)
	require.Equal(t, flow.ViewForm, view.Progress.View)
	require.Len(t, view.Progress.Steps, 4)

	rec = do(t, p, http.MethodGet, "/sessions")
	var sessions presenter.SessionsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions.Sessions, 1)

	rec = do(t, p, http.MethodDelete, "/sessions/"+session.ID)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, p, http.MethodGet, "/sessions/"+session.ID)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
