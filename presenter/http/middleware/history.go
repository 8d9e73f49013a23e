package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/flow"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/presenter/http/render"
)

type ctxKey int

const (
	messageCtxKey ctxKey = iota
	sessionCtxKey
	filterCtxKey
)

type FilterContext struct {
	Kind          *entity.MessageKind
	Status        *entity.MessageStatus
	OriginChainID *uint64
	DestChainID   *uint64
}

func (f *FilterContext) Match(msg *entity.TrackedMessage) bool {
	return (f.Kind == nil || *f.Kind == msg.Kind) &&
		(f.Status == nil || *f.Status == msg.Status) &&
		(f.OriginChainID == nil || *f.OriginChainID == msg.OriginChainID) &&
		(f.DestChainID == nil || *f.DestChainID == msg.DestinationChainID)
}

func GetMessageMiddleware(l *ledger.Ledger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			messageID := chi.URLParam(r, "messageId")

			msg, ok := l.Get(messageID)
			if !ok {
				render.NotFound(w, r, fmt.Sprintf("message with id %s not found", messageID))
				return
			}

			ctx := context.WithValue(r.Context(), messageCtxKey, msg)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Message(ctx context.Context) *entity.TrackedMessage {
	if msg, ok := ctx.Value(messageCtxKey).(*entity.TrackedMessage); ok {
		return msg
	}
	return new(entity.TrackedMessage)
}

func GetSessionMiddleware(registry *flow.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionId")

			session, ok := registry.Session(sessionID)
			if !ok {
				render.NotFound(w, r, fmt.Sprintf("session with id %s not found", sessionID))
				return
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Session(ctx context.Context) *flow.Session {
	if session, ok := ctx.Value(sessionCtxKey).(*flow.Session); ok {
		return session
	}
	return nil
}

func parseChainID(r *http.Request, name string) (*uint64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	chainID, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &chainID, nil
}

func GetFilterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := new(FilterContext)

		if kind := entity.MessageKind(query.Get("kind")); kind != "" {
			switch kind {
			case entity.MessageKindBridge, entity.MessageKindMessage, entity.MessageKindInterchainAccountCall:
				filter.Kind = &kind
			default:
				render.BadRequest(w, r, fmt.Sprintf("unknown message kind %s", kind))
				return
			}
		}
		if status := entity.MessageStatus(query.Get("status")); status != "" {
			switch status {
			case entity.MessageStatusPending, entity.MessageStatusDelivered, entity.MessageStatusFailed:
				filter.Status = &status
			default:
				render.BadRequest(w, r, fmt.Sprintf("unknown message status %s", status))
				return
			}
		}
		var err error
		if filter.OriginChainID, err = parseChainID(r, "originChainId"); err != nil {
			render.BadRequest(w, r, err.Error())
			return
		}
		if filter.DestChainID, err = parseChainID(r, "destinationChainId"); err != nil {
			render.BadRequest(w, r, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), filterCtxKey, filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetFilterContext(ctx context.Context) *FilterContext {
	if filter, ok := ctx.Value(filterCtxKey).(*FilterContext); ok {
		return filter
	}
	return new(FilterContext)
}
