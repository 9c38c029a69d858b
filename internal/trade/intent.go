package trade

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction is one side of a paired trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Marker is the keyword the bot's order preview states for this side.
func (d Direction) Marker() string {
	return strings.ToUpper(string(d))
}

// OrderIntent describes one leg of a paired trade. Both legs of a pair share
// ticker, leverage and amount; only the direction differs.
type OrderIntent struct {
	Ticker    string
	Leverage  int
	Amount    decimal.Decimal
	Direction Direction
}

// Command renders the slash command that opens this leg.
func (i OrderIntent) Command() string {
	return fmt.Sprintf("/%s %s %dx %s", i.Direction, i.Ticker, i.Leverage, i.Amount.StringFixed(2))
}

// StopLossSpec is the stop-loss/take-profit percentage attached to a position.
// Both legs of a pair carry the same spec so their risk stays symmetric.
type StopLossSpec struct {
	Percent int
}

// IntentSampler draws fresh order parameters from the configured universes.
// Values are scoped to one round and one pair; nothing is shared across pairs.
type IntentSampler struct {
	Tickers   []string
	Leverages []int
	AmountMin decimal.Decimal
	AmountMax decimal.Decimal

	StopLossMin int
	StopLossMax int
}

// PairedIntents samples shared parameters and returns the long and short legs.
func (s IntentSampler) PairedIntents() (OrderIntent, OrderIntent) {
	ticker := s.Tickers[rand.Intn(len(s.Tickers))]
	leverage := s.Leverages[rand.Intn(len(s.Leverages))]
	amount := s.sampleAmount()

	long := OrderIntent{Ticker: ticker, Leverage: leverage, Amount: amount, Direction: Long}
	short := OrderIntent{Ticker: ticker, Leverage: leverage, Amount: amount, Direction: Short}
	return long, short
}

func (s IntentSampler) sampleAmount() decimal.Decimal {
	lo, _ := s.AmountMin.Float64()
	hi, _ := s.AmountMax.Float64()
	if hi <= lo {
		return s.AmountMin.Round(2)
	}
	return decimal.NewFromFloat(lo + rand.Float64()*(hi-lo)).Round(2)
}

// SampleStopLoss draws a fresh percentage from [StopLossMin, StopLossMax].
func (s IntentSampler) SampleStopLoss() StopLossSpec {
	lo, hi := s.StopLossMin, s.StopLossMax
	if hi < lo {
		lo, hi = hi, lo
	}
	return StopLossSpec{Percent: lo + rand.Intn(hi-lo+1)}
}
