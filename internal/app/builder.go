package app

import (
	"context"
	"fmt"
	"time"

	"perpfarm/internal/config"
	"perpfarm/internal/gateway/telegram"
	"perpfarm/internal/info"
	"perpfarm/internal/logger"
	"perpfarm/internal/registry"
	"perpfarm/internal/rounds"
	"perpfarm/internal/store"
	"perpfarm/internal/trade"
	"perpfarm/internal/transport/http/status"

	"github.com/shopspring/decimal"
)

// AppBuilder assembles the application graph from configuration.
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg, err := registry.NewRegistry(cfg.Accounts.Path)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("account registry: %w", err)
	}

	client := telegram.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Token, cfg.Gateway.Timeout())
	binder := NewAccountBinder(client, cfg.Gateway.Bot, reg)

	sampler := trade.IntentSampler{
		Tickers:     cfg.Trading.Tickers,
		Leverages:   cfg.Trading.Leverages,
		AmountMin:   decimal.NewFromFloat(cfg.Trading.AmountMin),
		AmountMax:   decimal.NewFromFloat(cfg.Trading.AmountMax),
		StopLossMin: cfg.Trading.StopLossMin,
		StopLossMax: cfg.Trading.StopLossMax,
	}

	runner := rounds.NewRunner(
		binder,
		sampler,
		trade.NewOrderEngine(orderTiming(cfg.Timing.Order)),
		trade.NewStopLossEngine(stopLossTiming(cfg.Timing.StopLoss)),
		trade.NewCloseEngine(closeTiming(cfg.Timing.Close)),
		st,
		cfg.Rounds,
	)

	infoSvc := info.NewService(infoTiming(cfg.Timing.Info))

	httpSrv, err := status.NewServer(status.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Registry: reg,
		Store:    st,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("status server: %w", err)
	}

	logger.Infof("application built: %d tickers, gateway=%s, bot=%s",
		len(cfg.Trading.Tickers), cfg.Gateway.BaseURL, cfg.Gateway.Bot)

	return &App{
		cfg:    cfg,
		store:  st,
		binder: binder,
		runner: runner,
		info:   infoSvc,
		http:   httpSrv,
	}, nil
}

func orderTiming(t config.OrderTimingConfig) trade.OrderTiming {
	return trade.OrderTiming{
		Settle:     seconds(t.SettleS),
		Attempts:   t.Attempts,
		FetchLimit: t.FetchLimit,
	}
}

func stopLossTiming(t config.StopLossTimingConfig) trade.StopLossTiming {
	return trade.StopLossTiming{
		Settle:            seconds(t.SettleS),
		Attempts:          t.Attempts,
		FetchLimit:        t.FetchLimit,
		Retry:             seconds(t.RetryS),
		AfterClick:        seconds(t.AfterClickS),
		AfterValue:        seconds(t.AfterValueS),
		ConfirmFetchLimit: t.ConfirmFetchLimit,
	}
}

func closeTiming(t config.CloseTimingConfig) trade.CloseTiming {
	return trade.CloseTiming{
		Settle:     seconds(t.SettleS),
		Attempts:   t.Attempts,
		Interval:   seconds(t.IntervalS),
		FetchLimit: t.FetchLimit,
	}
}

func infoTiming(t config.InfoTimingConfig) info.Timing {
	return info.Timing{
		Attempts:         t.Attempts,
		Interval:         seconds(t.IntervalS),
		WalletFetchLimit: t.WalletFetchLimit,
		PointsFetchLimit: t.PointsFetchLimit,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
