package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxdesk/broker"
	"github.com/rustyeddy/fxdesk/broker/oanda"
	"github.com/rustyeddy/fxdesk/broker/sim"
	"github.com/rustyeddy/fxdesk/config"
	"github.com/rustyeddy/fxdesk/dashboard"
	"github.com/rustyeddy/fxdesk/internal/logging"
	"github.com/rustyeddy/fxdesk/ledger"
)

func newGateway(cfg config.BrokerConfig) (broker.Gateway, error) {
	switch cfg.Type {
	case "oanda":
		var timeout time.Duration
		if cfg.Oanda.Timeout != "" {
			d, err := time.ParseDuration(cfg.Oanda.Timeout)
			if err != nil {
				return nil, fmt.Errorf("oanda timeout: %w", err)
			}
			timeout = d
		}
		client, err := oanda.NewClient(oanda.Config{
			Env:       cfg.Oanda.Env,
			Token:     cfg.Oanda.Token,
			AccountID: cfg.Oanda.AccountID,
			ClientID:  cfg.ClientID,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "sim", "":
		return sim.New(sim.Config{ClientID: cfg.ClientID, Seed: cfg.Seed}), nil
	}
	return nil, fmt.Errorf("unknown broker type %q", cfg.Type)
}

// openDesk builds the logger, gateway, ledger and desk described by cfg.
// The returned func closes the ledger and flushes the logger.
func openDesk(ctx context.Context, cfg *config.Config) (*dashboard.Desk, *zap.Logger, func(), error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, err
	}

	gw, err := newGateway(cfg.Broker)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("broker: %w", err)
	}

	l, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, nil, nil, err
	}

	d, err := dashboard.New(ctx, dashboard.Config{
		Gateway:  gw,
		Ledger:   l,
		Logger:   logger,
		SecType:  cfg.Market.SecType,
		Exchange: cfg.Market.Exchange,
		Zone:     cfg.Market.Timezone,
	})
	if err != nil {
		l.Close()
		return nil, nil, nil, err
	}

	logger.Info("desk opened",
		zap.String("broker", cfg.Broker.Type),
		zap.String("ledger", cfg.Ledger.Type),
	)
	cleanup := func() {
		if err := l.Close(); err != nil {
			logger.Warn("close ledger", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return d, logger, cleanup, nil
}
