package trade

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/logger"
	"perpfarm/internal/poller"
)

// StopLossTiming bounds the two-phase stop-loss dialog. The prompt and the
// confirm are two genuinely sequential bot steps; collapsing them into one
// predicate would match the wrong dialog stage.
type StopLossTiming struct {
	Settle            time.Duration // after /stoploss command
	Attempts          int           // outer attempts over the whole dialog
	FetchLimit        int
	Retry             time.Duration // between failed outer attempts
	AfterClick        time.Duration // after clicking the percent-entry button
	AfterValue        time.Duration // after sending the numeric percentage
	ConfirmFetchLimit int
}

// StopLossEngine attaches a stop-loss/take-profit percentage to an open
// position by driving the bot's two-step dialog.
type StopLossEngine struct {
	timing StopLossTiming
}

func NewStopLossEngine(t StopLossTiming) *StopLossEngine {
	if t.Attempts <= 0 {
		t.Attempts = 5
	}
	if t.FetchLimit <= 0 {
		t.FetchLimit = 10
	}
	if t.ConfirmFetchLimit <= 0 {
		t.ConfirmFetchLimit = 5
	}
	return &StopLossEngine{timing: t}
}

// Attach runs: /stoploss <ticker> → percent-entry prompt → numeric reply →
// confirm button. Failure after the attempt budget is scoped to this account;
// it never affects the sibling leg of the pair.
func (e *StopLossEngine) Attach(ctx context.Context, acct *chat.Account, ticker string, spec StopLossSpec) error {
	name := acct.DisplayName()
	return acct.Do(ctx, func(conv chat.Conversation) error {
		logger.Infof("[%s] sending stop loss command: /stoploss %s", name, ticker)
		if err := conv.SendText(ctx, "/stoploss "+ticker); err != nil {
			return fmt.Errorf("send stoploss command: %w", err)
		}
		if err := poller.Sleep(ctx, e.timing.Settle); err != nil {
			return err
		}

		for attempt := 1; attempt <= e.timing.Attempts; attempt++ {
			err := e.runDialog(ctx, conv, spec)
			if err == nil {
				logger.Infof("[%s] stop loss set to %d%%", name, spec.Percent)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debugf("[%s] stop loss attempt %d/%d: %v", name, attempt, e.timing.Attempts, err)
			if attempt < e.timing.Attempts {
				if err := poller.Sleep(ctx, e.timing.Retry); err != nil {
					return err
				}
			}
		}
		return fmt.Errorf("stop loss not applied after %d attempts", e.timing.Attempts)
	})
}

// runDialog performs one full pass over the prompt → value → confirm sequence.
func (e *StopLossEngine) runDialog(ctx context.Context, conv chat.Conversation, spec StopLossSpec) error {
	msgs, err := conv.Recent(ctx, e.timing.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch prompt: %w", err)
	}
	prompt, ok := findPrompt(msgs)
	if !ok {
		return fmt.Errorf("no percent-entry prompt found")
	}
	btn, _ := prompt.FindButton(isPercentEntryLabel)
	if err := conv.Click(ctx, prompt, btn); err != nil {
		return fmt.Errorf("click percent-entry button: %w", err)
	}
	if err := poller.Sleep(ctx, e.timing.AfterClick); err != nil {
		return err
	}

	if err := conv.SendText(ctx, strconv.Itoa(spec.Percent)); err != nil {
		return fmt.Errorf("send percentage: %w", err)
	}
	if err := poller.Sleep(ctx, e.timing.AfterValue); err != nil {
		return err
	}

	confirms, err := conv.Recent(ctx, e.timing.ConfirmFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch confirm: %w", err)
	}
	for _, msg := range confirms {
		if btn, ok := msg.FindButton(isLooseConfirmLabel); ok {
			if err := conv.Click(ctx, msg, btn); err != nil {
				return fmt.Errorf("click confirm button: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("no confirm button found")
}

// findPrompt locates the "set percentage / set price" choice message.
func findPrompt(msgs []chat.Message) (chat.Message, bool) {
	for _, msg := range msgs {
		if msg.Text == "" {
			continue
		}
		if !strings.Contains(msg.Text, "Set a stop loss") &&
			!strings.Contains(msg.Text, "Pick a % or trigger price") {
			continue
		}
		if _, ok := msg.FindButton(isPercentEntryLabel); ok {
			return msg, true
		}
	}
	return chat.Message{}, false
}

func isPercentEntryLabel(btn chat.Button) bool {
	return btn.Label == "Set %" || btn.Label == "Set Price"
}

// isLooseConfirmLabel accepts a check mark or the word "confirm" in any case.
func isLooseConfirmLabel(btn chat.Button) bool {
	return strings.Contains(btn.Label, "✅") ||
		strings.Contains(strings.ToLower(btn.Label), "confirm")
}
