// Package app assembles the campaign service from configuration for the
// server and worker commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/address"
	"github.com/unclebandit/crowdfund-program/internal/config"
	"github.com/unclebandit/crowdfund-program/internal/db"
	"github.com/unclebandit/crowdfund-program/internal/ledger"
	"github.com/unclebandit/crowdfund-program/internal/model"
	"github.com/unclebandit/crowdfund-program/internal/queue"
	"github.com/unclebandit/crowdfund-program/internal/repository"
	"github.com/unclebandit/crowdfund-program/internal/service"
)

// App holds the assembled service and the resources to release on exit.
type App struct {
	Service *service.CampaignService
	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New builds the service selected by cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	program, err := cfg.Program()
	if err != nil {
		return nil, err
	}
	a := &App{}

	l, err := a.openLedger(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	events, err := a.openEvents(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = &service.CampaignService{
		ProgramID: program,
		Deriver:   address.ProgramDeriver{},
		Ledger:    l,
		Queue:     events,
		Logger:    logger,
	}
	return a, nil
}

func (a *App) openLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		conn, err := db.Open(ctx, cfg.DSN(), logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		return &repository.AccountRepository{DB: conn, Rent: cfg.Rent()}, nil
	case config.BackendMemory:
		logger.Warn("using in-memory ledger; state is lost on exit")
		return ledger.NewMemoryLedger(cfg.Rent()), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func (a *App) openEvents(cfg *config.Config, logger *zap.Logger) (queue.Queue, error) {
	switch cfg.EventsBackend {
	case config.BackendAMQP:
		pub, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		return pub, nil
	case config.BackendMemory:
		q := queue.NewInMemoryQueue(logger)
		err := q.Subscribe(service.TopicCampaignCreated, func(payload any) error {
			event, ok := payload.(model.CampaignCreatedEvent)
			if !ok {
				return nil
			}
			logger.Info("📣 campaign created",
				zap.Stringer("address", event.Address),
				zap.Stringer("creator", event.Creator),
				zap.String("name", event.Name))
			return nil
		})
		return q, err
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}
