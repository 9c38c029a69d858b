// Package poller implements the bounded-retry reply search every engine step
// is built on: fetch the most recent messages, test each against a content
// predicate, sleep, repeat until a match or the attempt budget runs out.
package poller

import (
	"context"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/logger"
)

// Budget bounds one poll: attempt count times a fixed interval, with a fetch
// window per attempt. Timeouts are deliberately attempt-based rather than
// wall-clock deadlines so they stay visible as configuration.
type Budget struct {
	MaxAttempts int
	Interval    time.Duration
	FetchLimit  int
}

// Predicate decides whether a candidate message answers the pending step.
// It must be strict enough to reject replies belonging to another step on the
// same shared dialog.
type Predicate func(chat.Message) bool

// PollFor searches conv's recent messages for one satisfying pred.
//
// The boolean result distinguishes "matched" from "budget exhausted"; the
// latter is an expected outcome, not an error. Fetch failures are logged and
// consume an attempt. The only error returned is context cancellation.
func PollFor(ctx context.Context, conv chat.Conversation, b Budget, pred Predicate) (chat.Message, bool, error) {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = 1
	}
	if b.FetchLimit <= 0 {
		b.FetchLimit = 5
	}
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		msgs, err := conv.Recent(ctx, b.FetchLimit)
		if err != nil {
			if ctx.Err() != nil {
				return chat.Message{}, false, ctx.Err()
			}
			logger.Warnf("poll attempt %d/%d: fetch failed: %v", attempt, b.MaxAttempts, err)
		}
		for _, msg := range msgs {
			if pred(msg) {
				return msg, true, nil
			}
		}
		if attempt == b.MaxAttempts {
			break
		}
		if err := sleep(ctx, b.Interval); err != nil {
			return chat.Message{}, false, err
		}
	}
	return chat.Message{}, false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep waits d or until ctx is cancelled. Engines use it for settle delays
// between sending a command and polling for the reply.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}
