// Package rounds drives the trading cycle: pair the accounts, open opposing
// legs with stop-loss protection, hold, then close everything. The loop is a
// supervised long-running task: an unexpected round failure logs, cools down
// and continues; only context cancellation stops it.
package rounds

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/config"
	"perpfarm/internal/logger"
	"perpfarm/internal/poller"
	"perpfarm/internal/store"
	"perpfarm/internal/trade"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AccountSource yields the active account set for a round. The runner never
// holds accounts between rounds, so roster changes take effect on the next
// cycle.
type AccountSource interface {
	Accounts() []*chat.Account
}

// Recorder persists round summaries. The runner treats persistence failures
// as log-only; a dead database must not stop trading.
type Recorder interface {
	SaveRound(ctx context.Context, rec store.RoundRecord, legs []store.LegOutcome) error
}

// Runner owns one trading loop over one account source.
type Runner struct {
	source   AccountSource
	sampler  trade.IntentSampler
	orders   *trade.OrderEngine
	stops    *trade.StopLossEngine
	closer   *trade.CloseEngine
	recorder Recorder
	delays   config.RoundsConfig
}

func NewRunner(
	source AccountSource,
	sampler trade.IntentSampler,
	orders *trade.OrderEngine,
	stops *trade.StopLossEngine,
	closer *trade.CloseEngine,
	recorder Recorder,
	delays config.RoundsConfig,
) *Runner {
	return &Runner{
		source:   source,
		sampler:  sampler,
		orders:   orders,
		stops:    stops,
		closer:   closer,
		recorder: recorder,
		delays:   delays,
	}
}

// Run loops rounds until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		openDelay := randDelay(r.delays.OpenDelayMinS, r.delays.OpenDelayMaxS)
		logger.Infof("waiting %s before opening positions...", openDelay)
		if err := poller.Sleep(ctx, openDelay); err != nil {
			return err
		}
		if err := r.RunRound(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Errorf("round failed: %v", err)
			if err := poller.Sleep(ctx, r.delays.Cooldown()); err != nil {
				return err
			}
		}
	}
}

// RunRound executes one open→hold→close cycle across all paired accounts.
func (r *Runner) RunRound(ctx context.Context) error {
	traceID := uuid.NewString()
	started := time.Now()
	accounts := r.source.Accounts()

	pairs, err := trade.PairAccounts(accounts)
	if err != nil {
		return fmt.Errorf("pairing %d accounts: %w", len(accounts), err)
	}
	logger.Infof("round %s: opening positions for %d pairs", traceID, len(pairs))

	legs := make([]legState, 2*len(pairs))
	var eg errgroup.Group
	for i, pair := range pairs {
		i, pair := i, pair
		long, short := r.sampler.PairedIntents()
		spec := r.sampler.SampleStopLoss()
		legs[2*i] = newLegState(pair.A, long, spec)
		legs[2*i+1] = newLegState(pair.B, short, spec)
		logPairPlan(pair, long, short)

		eg.Go(func() error {
			var pairGroup errgroup.Group
			pairGroup.Go(func() error { r.runLeg(ctx, &legs[2*i]); return nil })
			pairGroup.Go(func() error { r.runLeg(ctx, &legs[2*i+1]); return nil })
			return pairGroup.Wait()
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	closeDelay := randDelay(r.delays.CloseDelayMinS, r.delays.CloseDelayMaxS)
	logger.Infof("round %s: waiting %s before closing positions...", traceID, closeDelay)
	if err := poller.Sleep(ctx, closeDelay); err != nil {
		return err
	}

	r.closeAll(ctx, legs)
	if err := ctx.Err(); err != nil {
		return err
	}

	r.record(ctx, traceID, started, len(pairs), legs)
	logSummary(traceID, legs)
	return nil
}

// runLeg opens one side and attaches its stop loss. Failures stay scoped to
// the leg; the sibling leg and other pairs continue regardless.
func (r *Runner) runLeg(ctx context.Context, leg *legState) {
	name := leg.account.DisplayName()
	if err := r.orders.PlaceOrder(ctx, leg.account, leg.intent); err != nil {
		leg.fail(fmt.Errorf("open: %w", err))
		logger.Errorf("[%s] open failed: %v", name, err)
		return
	}
	leg.markOpened()
	if err := r.stops.Attach(ctx, leg.account, leg.intent.Ticker, leg.spec); err != nil {
		leg.fail(fmt.Errorf("stop loss: %w", err))
		logger.Errorf("[%s] stop loss failed: %v", name, err)
		return
	}
	leg.markStopLossSet()
}

// closeAll fans the close pass out across all accounts of the round.
func (r *Runner) closeAll(ctx context.Context, legs []legState) {
	var eg errgroup.Group
	for i := range legs {
		leg := &legs[i]
		eg.Go(func() error {
			result, err := r.closer.CloseAll(ctx, leg.account)
			if err != nil {
				if ctx.Err() == nil {
					logger.Errorf("[%s] close failed: %v", leg.account.DisplayName(), err)
				}
				return nil
			}
			leg.setClosed(result.ClosedSymbols)
			return nil
		})
	}
	_ = eg.Wait()
}

func (r *Runner) record(ctx context.Context, traceID string, started time.Time, pairs int, legs []legState) {
	if r.recorder == nil {
		return
	}
	outcomes := make([]store.LegOutcome, len(legs))
	opened, failed := 0, 0
	for i := range legs {
		outcomes[i] = legs[i].outcome()
		if outcomes[i].Opened {
			opened++
		} else {
			failed++
		}
	}
	rec := store.RoundRecord{
		TraceID:    traceID,
		Pairs:      pairs,
		OpenedLegs: opened,
		FailedLegs: failed,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := r.recorder.SaveRound(ctx, rec, outcomes); err != nil {
		logger.Warnf("round %s: persist failed: %v", traceID, err)
	}
}

func randDelay(minS, maxS int) time.Duration {
	if maxS <= minS {
		return time.Duration(minS) * time.Second
	}
	return time.Duration(minS+rand.Intn(maxS-minS+1)) * time.Second
}

func logPairPlan(pair trade.Pair, long, short trade.OrderIntent) {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tSIDE\tTICKER\tLEVERAGE\tAMOUNT")
	fmt.Fprintf(w, "%s\t%s\t%s\t%dx\t%s\n",
		pair.A.DisplayName(), long.Direction.Marker(), long.Ticker, long.Leverage, long.Amount.StringFixed(2))
	fmt.Fprintf(w, "%s\t%s\t%s\t%dx\t%s\n",
		pair.B.DisplayName(), short.Direction.Marker(), short.Ticker, short.Leverage, short.Amount.StringFixed(2))
	w.Flush()
	logger.InfoBlock(b.String())
}

func logSummary(traceID string, legs []legState) {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tOPENED\tSTOP LOSS\tCLOSED")
	for i := range legs {
		out := legs[i].outcome()
		closed := "-"
		if len(out.ClosedSymbols) > 0 {
			closed = strings.Join(out.ClosedSymbols, ", ")
		}
		fmt.Fprintf(w, "%s\t%v\t%v\t%s\n", out.Account, out.Opened, out.StopLossSet, closed)
	}
	w.Flush()
	logger.Infof("round %s summary:", traceID)
	logger.InfoBlock(b.String())
}

// legState tracks one account's progress through the round. Writes from the
// leg goroutine and the close fan-out are serialized by phase, but a mutex
// keeps the invariant local instead of structural-by-accident.
type legState struct {
	account *chat.Account
	intent  trade.OrderIntent
	spec    trade.StopLossSpec

	mu            sync.Mutex
	opened        bool
	stopLossSet   bool
	closedSymbols []string
	err           error
}

func newLegState(acct *chat.Account, intent trade.OrderIntent, spec trade.StopLossSpec) legState {
	return legState{account: acct, intent: intent, spec: spec}
}

func (l *legState) markOpened() {
	l.mu.Lock()
	l.opened = true
	l.mu.Unlock()
}

func (l *legState) markStopLossSet() {
	l.mu.Lock()
	l.stopLossSet = true
	l.mu.Unlock()
}

func (l *legState) setClosed(symbols []string) {
	l.mu.Lock()
	l.closedSymbols = symbols
	l.mu.Unlock()
}

func (l *legState) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

func (l *legState) outcome() store.LegOutcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := store.LegOutcome{
		Account:       l.account.DisplayName(),
		Direction:     string(l.intent.Direction),
		Ticker:        l.intent.Ticker,
		Leverage:      l.intent.Leverage,
		Amount:        l.intent.Amount.StringFixed(2),
		StopLossPct:   l.spec.Percent,
		Opened:        l.opened,
		StopLossSet:   l.stopLossSet,
		ClosedSymbols: append([]string(nil), l.closedSymbols...),
	}
	if l.err != nil {
		out.Error = l.err.Error()
	}
	return out
}
