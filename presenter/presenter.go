package presenter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/entity"
	"github.com/omni/interchain-tracker/flow"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/message"
	"github.com/omni/interchain-tracker/presenter/http/middleware"
	"github.com/omni/interchain-tracker/presenter/http/render"
)

const shutdownTimeout = 5 * time.Second

type Presenter struct {
	logger   logging.Logger
	cfg      *config.Config
	ledger   *ledger.Ledger
	registry *flow.Registry
	root     chi.Router
}

func NewPresenter(logger logging.Logger, cfg *config.Config, l *ledger.Ledger, registry *flow.Registry) *Presenter {
	p := &Presenter{
		logger:   logger,
		cfg:      cfg,
		ledger:   l,
		registry: registry,
		root:     chi.NewMux(),
	}
	p.root.Use(chimiddleware.Throttle(5))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(logger))
	p.root.Use(middleware.Recoverer)

	p.root.Route("/history", func(r chi.Router) {
		r.With(middleware.GetFilterMiddleware).Get("/", p.GetHistory)
		r.Delete("/", p.ClearHistory)
		r.Get("/pending", p.GetPending)
		r.Route("/{messageId:0x[0-9a-fA-F]+}", func(r chi.Router) {
			r.Use(middleware.GetMessageMiddleware(l))
			r.Get("/", p.GetMessage)
			r.Delete("/", p.RemoveMessage)
		})
	})
	p.root.Route("/sessions", func(r chi.Router) {
		r.Get("/", p.GetSessions)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Use(middleware.GetSessionMiddleware(registry))
			r.Get("/", p.GetSession)
			r.Delete("/", p.DismissSession)
		})
	})
	return p
}

func (p *Presenter) Handler() http.Handler {
	return p.root
}

// Serve blocks until ctx is done, then shuts the server down gracefully.
func (p *Presenter) Serve(ctx context.Context, addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			p.logger.WithError(err).Error("can't shutdown presenter service")
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (p *Presenter) GetHistory(w http.ResponseWriter, r *http.Request) {
	filter := middleware.GetFilterContext(r.Context())

	res := &HistoryResult{Messages: []*MessageInfo{}}
	for _, msg := range p.ledger.All() {
		if msg.Status == entity.MessageStatusPending && message.IsKnownID(msg.MessageID) {
			res.Pending++
		}
		if filter.Match(msg) {
			res.Messages = append(res.Messages, p.messageToMessageInfo(msg))
		}
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetPending(w http.ResponseWriter, r *http.Request) {
	ids := p.ledger.PendingIDs()
	if ids == nil {
		ids = []string{}
	}
	render.JSON(w, r, http.StatusOK, &PendingResult{MessageIDs: ids})
}

func (p *Presenter) GetMessage(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, p.messageToMessageInfo(middleware.Message(r.Context())))
}

func (p *Presenter) RemoveMessage(w http.ResponseWriter, r *http.Request) {
	msg := middleware.Message(r.Context())
	p.ledger.RemoveByID(r.Context(), msg.MessageID)
	w.WriteHeader(http.StatusNoContent)
}

func (p *Presenter) ClearHistory(w http.ResponseWriter, r *http.Request) {
	p.ledger.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (p *Presenter) GetSessions(w http.ResponseWriter, r *http.Request) {
	res := &SessionsResult{Sessions: []*flow.SessionView{}}
	for _, s := range p.registry.Sessions() {
		res.Sessions = append(res.Sessions, s.View())
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, middleware.Session(r.Context()).View())
}

func (p *Presenter) DismissSession(w http.ResponseWriter, r *http.Request) {
	p.registry.Dismiss(middleware.Session(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}
