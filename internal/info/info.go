// Package info implements the one-shot query flows: wallet details and point
// totals. Unlike the trading engines there is no button interaction: send a
// command, poll for the marker phrase, parse, and degrade to sentinels when
// the reply never arrives.
package info

import (
	"context"
	"strings"
	"time"

	"perpfarm/internal/chat"
	"perpfarm/internal/logger"
	"perpfarm/internal/parse"
	"perpfarm/internal/poller"
)

const (
	walletMarker = "Your Wallet"
	pointsMarker = "points"
)

// Timing bounds the reply search for both query kinds.
type Timing struct {
	Attempts         int
	Interval         time.Duration
	WalletFetchLimit int
	PointsFetchLimit int
}

// WalletReport is one account's wallet query outcome. On total failure the
// info fields hold their sentinels and OK is false.
type WalletReport struct {
	Account string
	Info    parse.WalletInfo
	OK      bool
}

// PointsReport is one account's points query outcome.
type PointsReport struct {
	Account string
	Points  int
	OK      bool
}

// Service runs info queries against individual accounts.
type Service struct {
	timing Timing
}

func NewService(t Timing) *Service {
	if t.Attempts <= 0 {
		t.Attempts = 5
	}
	if t.WalletFetchLimit <= 0 {
		t.WalletFetchLimit = 10
	}
	if t.PointsFetchLimit <= 0 {
		t.PointsFetchLimit = 5
	}
	return &Service{timing: t}
}

// Wallet sends /wallet and parses the reply. The report is sentinel-filled
// when no wallet message arrives within the budget.
func (s *Service) Wallet(ctx context.Context, acct *chat.Account) WalletReport {
	name := acct.DisplayName()
	report := WalletReport{Account: name, Info: parse.Wallet("")}
	err := acct.Do(ctx, func(conv chat.Conversation) error {
		if err := conv.SendText(ctx, "/wallet"); err != nil {
			return err
		}
		budget := poller.Budget{
			MaxAttempts: s.timing.Attempts,
			Interval:    s.timing.Interval,
			FetchLimit:  s.timing.WalletFetchLimit,
		}
		msg, found, err := poller.PollFor(ctx, conv, budget, func(m chat.Message) bool {
			return strings.Contains(m.Text, walletMarker)
		})
		if err != nil || !found {
			return err
		}
		report.Info = parse.Wallet(msg.Text)
		report.OK = true
		return nil
	})
	if err != nil {
		logger.Warnf("[%s] wallet query failed: %v", name, err)
	} else if !report.OK {
		logger.Warnf("[%s] no wallet reply after %d attempts", name, s.timing.Attempts)
	}
	return report
}

// Points sends /points and extracts the total.
func (s *Service) Points(ctx context.Context, acct *chat.Account) PointsReport {
	name := acct.DisplayName()
	report := PointsReport{Account: name}
	err := acct.Do(ctx, func(conv chat.Conversation) error {
		if err := conv.SendText(ctx, "/points"); err != nil {
			return err
		}
		budget := poller.Budget{
			MaxAttempts: s.timing.Attempts,
			Interval:    s.timing.Interval,
			FetchLimit:  s.timing.PointsFetchLimit,
		}
		msg, found, err := poller.PollFor(ctx, conv, budget, func(m chat.Message) bool {
			return strings.Contains(m.Text, "You have") && strings.Contains(m.Text, pointsMarker)
		})
		if err != nil || !found {
			return err
		}
		report.Points = parse.Points(msg.Text)
		report.OK = true
		return nil
	})
	if err != nil {
		logger.Warnf("[%s] points query failed: %v", name, err)
	} else if !report.OK {
		logger.Warnf("[%s] no points reply after %d attempts", name, s.timing.Attempts)
	}
	return report
}
