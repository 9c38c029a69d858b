package trade

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/logger"
	"perpfarm/internal/parse"
	"perpfarm/internal/poller"
)

const (
	positionsOverviewMarker = "Positions Overview"
	noPositionsMarker       = "You have no open perps positions"
	closePreviewMarker      = "Order Preview"
)

// CloseTiming bounds discovery of open positions and each per-symbol close.
type CloseTiming struct {
	Settle     time.Duration
	Attempts   int
	Interval   time.Duration
	FetchLimit int
}

// CloseResult aggregates one account's close pass. Having no open positions
// is success with an empty result, not a failure.
type CloseResult struct {
	HasClosedPositions bool
	ClosedSymbols      []string
}

// CloseEngine discovers an account's open positions and closes each in turn.
type CloseEngine struct {
	timing CloseTiming
}

func NewCloseEngine(t CloseTiming) *CloseEngine {
	if t.Attempts <= 0 {
		t.Attempts = 5
	}
	if t.FetchLimit <= 0 {
		t.FetchLimit = 5
	}
	return &CloseEngine{timing: t}
}

// CloseAll sends /close, reads the positions overview, then closes symbols
// strictly one at a time: closing one symbol may shift the next overview's
// button layout, so per-symbol flows must not overlap. Per-symbol failures
// are recorded and do not abort the remaining symbols.
func (e *CloseEngine) CloseAll(ctx context.Context, acct *chat.Account) (CloseResult, error) {
	name := acct.DisplayName()
	var result CloseResult
	err := acct.Do(ctx, func(conv chat.Conversation) error {
		if err := conv.SendText(ctx, "/close"); err != nil {
			return fmt.Errorf("send close command: %w", err)
		}
		if err := poller.Sleep(ctx, e.timing.Settle); err != nil {
			return err
		}

		overview, found, err := poller.PollFor(ctx, conv, e.pollBudget(), isPositionsReply)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no positions reply after %d attempts", e.timing.Attempts)
		}
		if strings.Contains(overview.Text, noPositionsMarker) {
			logger.Infof("[%s] no open positions", name)
			return nil
		}

		symbols := parse.PositionSymbols(overview)
		for _, symbol := range symbols {
			if err := e.closeSymbol(ctx, conv, name, symbol); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warnf("[%s] closing %s failed: %v", name, symbol, err)
				continue
			}
			result.ClosedSymbols = append(result.ClosedSymbols, symbol)
		}
		result.HasClosedPositions = len(result.ClosedSymbols) > 0
		return nil
	})
	return result, err
}

func (e *CloseEngine) closeSymbol(ctx context.Context, conv chat.Conversation, name, symbol string) error {
	logger.Infof("[%s] closing position %s", name, symbol)
	command := fmt.Sprintf("/close %s 100", strings.ToLower(symbol))
	if err := conv.SendText(ctx, command); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := poller.Sleep(ctx, e.timing.Settle); err != nil {
		return err
	}

	preview, found, err := poller.PollFor(ctx, conv, e.pollBudget(), isClosePreview)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no close preview after %d attempts", e.timing.Attempts)
	}
	btn, ok := preview.FindButton(isCloseConfirmButton)
	if !ok {
		return fmt.Errorf("close preview has no confirm button")
	}
	if err := conv.Click(ctx, preview, btn); err != nil {
		return fmt.Errorf("click confirm: %w", err)
	}
	return nil
}

func (e *CloseEngine) pollBudget() poller.Budget {
	return poller.Budget{
		MaxAttempts: e.timing.Attempts,
		Interval:    e.timing.Interval,
		FetchLimit:  e.timing.FetchLimit,
	}
}

// isPositionsReply matches either outcome of /close: an overview to work
// through, or the explicit empty-state message.
func isPositionsReply(msg chat.Message) bool {
	if msg.Text == "" || msg.IsCommandEcho() {
		return false
	}
	return strings.Contains(msg.Text, positionsOverviewMarker) ||
		strings.Contains(msg.Text, noPositionsMarker)
}

func isClosePreview(msg chat.Message) bool {
	return !msg.IsCommandEcho() && strings.Contains(msg.Text, closePreviewMarker)
}

// isCloseConfirmButton accepts a check-mark label or the bot's confirm-order
// callback payload.
func isCloseConfirmButton(btn chat.Button) bool {
	return strings.Contains(btn.Label, "✅") ||
		bytes.Equal(btn.Payload, []byte("confirm-order"))
}
