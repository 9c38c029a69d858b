package app

import (
	"context"
	"fmt"
	"time"

	"perpfarm/internal/config"
	"perpfarm/internal/info"
	"perpfarm/internal/logger"
	"perpfarm/internal/rounds"
	"perpfarm/internal/store"
	"perpfarm/internal/transport/http/status"

	"golang.org/x/sync/errgroup"
)

// App owns the assembled services: the round loop, the status HTTP surface
// and the one-shot report commands.
type App struct {
	cfg    *config.Config
	store  *store.Store
	binder *AccountBinder
	runner *rounds.Runner
	info   *info.Service
	http   *status.Server
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the trading loop and the status server; it returns when ctx is
// cancelled or either part fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.runner == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("status http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		err := a.runner.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	return group.Wait()
}

// CheckBalances runs the wallet report across all accounts and persists the
// snapshots.
func (a *App) CheckBalances(ctx context.Context) error {
	reports := a.info.CheckBalances(ctx, a.binder.Accounts())
	snaps := make([]store.WalletSnapshot, 0, len(reports))
	now := time.Now()
	for _, r := range reports {
		snaps = append(snaps, store.WalletSnapshot{
			Account:      r.Account,
			ETHAddress:   r.Info.ETHAddress,
			SOLAddress:   r.Info.SOLAddress,
			PerpsBalance: r.Info.PerpsBalance.StringFixed(2),
			OK:           r.OK,
			CreatedAt:    now,
		})
	}
	if err := a.store.SaveWalletSnapshots(ctx, snaps); err != nil {
		logger.Warnf("persisting wallet snapshots failed: %v", err)
	}
	return nil
}

// CheckPoints runs the points report across all accounts and persists the
// snapshots.
func (a *App) CheckPoints(ctx context.Context) error {
	reports, total := a.info.CheckPoints(ctx, a.binder.Accounts())
	snaps := make([]store.PointsSnapshot, 0, len(reports))
	now := time.Now()
	for _, r := range reports {
		snaps = append(snaps, store.PointsSnapshot{
			Account:   r.Account,
			Points:    r.Points,
			OK:        r.OK,
			CreatedAt: now,
		})
	}
	if err := a.store.SavePointsSnapshots(ctx, snaps); err != nil {
		logger.Warnf("persisting points snapshots failed: %v", err)
	}
	logger.Infof("points report complete: %d accounts, %d total", len(reports), total)
	return nil
}

// Close releases held resources.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("store close failed: %v", err)
		}
	}
}
