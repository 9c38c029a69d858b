package trade

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/logger"
	"perpfarm/internal/poller"
)

const orderPreviewMarker = "👀 Order Preview"

// OrderTiming bounds one order placement: settle delay after the command,
// then up to Attempts fetch-and-match passes over the last FetchLimit messages.
type OrderTiming struct {
	Settle     time.Duration
	Attempts   int
	FetchLimit int
}

// OrderEngine opens one leg of a paired trade and confirms it against the
// bot's order preview.
type OrderEngine struct {
	timing OrderTiming
}

func NewOrderEngine(t OrderTiming) *OrderEngine {
	if t.Attempts <= 0 {
		t.Attempts = 3
	}
	if t.FetchLimit <= 0 {
		t.FetchLimit = 5
	}
	return &OrderEngine{timing: t}
}

// PlaceOrder sends the open command and confirms the resulting preview.
// A nil return means the bot acknowledged the order; it is not an
// exchange-level fill guarantee. The command is sent once; retries only
// re-fetch and re-match.
func (e *OrderEngine) PlaceOrder(ctx context.Context, acct *chat.Account, intent OrderIntent) error {
	name := acct.DisplayName()
	return acct.Do(ctx, func(conv chat.Conversation) error {
		command := intent.Command()
		logger.Infof("[%s] sending order command: %s", name, command)
		if err := conv.SendText(ctx, command); err != nil {
			return fmt.Errorf("send order command: %w", err)
		}

		pred := previewPredicate(intent)
		for attempt := 1; attempt <= e.timing.Attempts; attempt++ {
			if err := poller.Sleep(ctx, e.timing.Settle); err != nil {
				return err
			}
			msgs, err := conv.Recent(ctx, e.timing.FetchLimit)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warnf("[%s] attempt %d: fetch failed: %v", name, attempt, err)
				continue
			}
			match, ok := firstMatch(msgs, pred)
			if !ok {
				logger.Debugf("[%s] attempt %d: no message matched order preview", name, attempt)
				continue
			}
			btn, ok := match.FindButton(isConfirmLabel)
			if !ok {
				continue
			}
			if err := conv.Click(ctx, match, btn); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warnf("[%s] attempt %d: confirm click failed: %v", name, attempt, err)
				continue
			}
			logger.Infof("[%s] order confirmed: %s %s %dx %s",
				name, intent.Direction.Marker(), strings.ToUpper(intent.Ticker),
				intent.Leverage, intent.Amount.StringFixed(2))
			return nil
		}
		return fmt.Errorf("no matching order preview after %d attempts", e.timing.Attempts)
	})
}

// previewPredicate requires all five conditions at once: not a command echo,
// the preview marker, the expected direction keyword, the ticker, the
// leverage as echoed from the command, and a confirm-style button. The
// leverage check is intentionally loose: it verifies the echo of our own
// command, not independent bot state.
func previewPredicate(intent OrderIntent) func(chat.Message) bool {
	direction := "Market: " + intent.Direction.Marker()
	ticker := strings.ToUpper(intent.Ticker)
	leverage := fmt.Sprintf("Leverage: %dX", intent.Leverage)
	return func(msg chat.Message) bool {
		if msg.Text == "" || msg.IsCommandEcho() {
			return false
		}
		if !strings.Contains(msg.Text, orderPreviewMarker) {
			return false
		}
		if !strings.Contains(msg.Text, direction) {
			return false
		}
		if !strings.Contains(msg.Text, ticker) {
			return false
		}
		if !strings.Contains(msg.Text, leverage) {
			return false
		}
		_, ok := msg.FindButton(isConfirmLabel)
		return ok
	}
}

func isConfirmLabel(btn chat.Button) bool {
	return btn.Label == "Confirm" || btn.Label == "✅ Confirm"
}

// firstMatch evaluates pred concurrently across the fetched batch and returns
// the first message to satisfy it, in evaluation completion order. At most
// one message should ever satisfy the full predicate, so the tie-break is
// immaterial.
func firstMatch(msgs []chat.Message, pred func(chat.Message) bool) (chat.Message, bool) {
	if len(msgs) == 0 {
		return chat.Message{}, false
	}
	hits := make(chan chat.Message, len(msgs))
	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		go func(m chat.Message) {
			defer wg.Done()
			if pred(m) {
				hits <- m
			}
		}(msg)
	}
	wg.Wait()
	close(hits)
	match, ok := <-hits
	return match, ok
}
