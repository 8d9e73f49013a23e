package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/ethclient"
	"github.com/omni/interchain-tracker/flow"
	"github.com/omni/interchain-tracker/ledger"
	"github.com/omni/interchain-tracker/logging"
	"github.com/omni/interchain-tracker/presenter"
	"github.com/omni/interchain-tracker/reconciler"
	"github.com/omni/interchain-tracker/repository"
)

var (
	configPath = flag.String("config", "config.yml", "path to the config file")
	envFile    = flag.String("env", ".env", "optional env file to load before reading the config")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := repository.NewStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't open ledger storage")
	}
	defer store.Close()

	l := ledger.New(logger.WithField("service", "ledger"), store, cfg.Ledger)
	if err = l.Load(ctx); err != nil {
		logger.WithError(err).Fatal("can't load message ledger")
	}

	if cfg.MetricsHost != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			err2 := http.ListenAndServe(cfg.MetricsHost, nil)
			if err2 != nil {
				logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
			}
		}()
	}

	clients := ethclient.NewPool(cfg.Chains, nil)
	defer clients.Close()

	backend, err := reconciler.NewBackend(cfg, clients)
	if err != nil {
		logger.WithError(err).Fatal("can't create status backend")
	}
	registry := flow.NewRegistry()
	rec := reconciler.New(logger.WithField("service", "reconciler"), l, backend, registry, cfg.Reconciler.Interval)
	rec.Start(ctx)
	defer rec.Stop()

	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), cfg, l, registry)
		go func() {
			err2 := pr.Serve(ctx, cfg.Presenter.Host)
			if err2 != nil {
				logger.WithError(err2).Fatal("can't serve presenter")
			}
		}()
	}

	logger.WithField("mode", cfg.Mode).Info("interchain tracker started")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	logger.Warn("caught CTRL-C, gracefully terminating")
}
