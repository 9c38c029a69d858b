package info

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"perpfarm/internal/chat"
	"perpfarm/internal/logger"

	"golang.org/x/sync/errgroup"
)

// CheckBalances queries every account concurrently and logs an aggregate
// table. A single account's failure surfaces as sentinel fields in its row,
// never as an abort of the batch.
func (s *Service) CheckBalances(ctx context.Context, accounts []*chat.Account) []WalletReport {
	logger.Infof("fetching wallet info for %d accounts...", len(accounts))
	reports := make([]WalletReport, len(accounts))
	var eg errgroup.Group
	for i, acct := range accounts {
		i, acct := i, acct
		eg.Go(func() error {
			reports[i] = s.Wallet(ctx, acct)
			return nil
		})
	}
	_ = eg.Wait()

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tBALANCE\tETH ADDRESS\tSOL ADDRESS")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t$%s\t%s\t%s\n",
			r.Account, r.Info.PerpsBalance.StringFixed(2), r.Info.ETHAddress, r.Info.SOLAddress)
	}
	w.Flush()
	logger.InfoBlock(b.String())
	return reports
}

// CheckPoints queries every account concurrently and returns the reports with
// their sum.
func (s *Service) CheckPoints(ctx context.Context, accounts []*chat.Account) ([]PointsReport, int) {
	logger.Infof("fetching points for %d accounts...", len(accounts))
	reports := make([]PointsReport, len(accounts))
	var eg errgroup.Group
	for i, acct := range accounts {
		i, acct := i, acct
		eg.Go(func() error {
			reports[i] = s.Points(ctx, acct)
			return nil
		})
	}
	_ = eg.Wait()

	total := 0
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tPOINTS")
	for _, r := range reports {
		total += r.Points
		fmt.Fprintf(w, "%s\t%d\n", r.Account, r.Points)
	}
	w.Flush()
	logger.InfoBlock(b.String())
	logger.Infof("total points: %d", total)
	return reports, total
}
