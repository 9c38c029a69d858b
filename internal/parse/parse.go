// Package parse extracts structured facts from the bot's free-text replies.
//
// The upstream message format is neither versioned nor guaranteed, so every
// function here is total: a malformed reply degrades to sentinel values and
// never aborts a batch of otherwise independent account results.
package parse

import (
	"regexp"
	"strconv"

	"perpfarm/internal/chat"

	"github.com/shopspring/decimal"
)

// AddressNotFound is the sentinel for a wallet address missing from the reply.
const AddressNotFound = "not found"

var (
	ethAddrRe = regexp.MustCompile(`ETH Address: (0x[a-fA-F0-9]{40})`)
	solAddrRe = regexp.MustCompile(`SOL Address: ([a-zA-Z0-9]{32,44})`)
	perpsRe   = regexp.MustCompile(`Perps Balance: \$([0-9.]+)`)
	pointsRe  = regexp.MustCompile(`(\d+) points`)
)

// WalletInfo is the parsed result of a /wallet reply. Absent fields hold
// their sentinels.
type WalletInfo struct {
	ETHAddress   string
	SOLAddress   string
	PerpsBalance decimal.Decimal
}

// Wallet pattern-extracts addresses and the perps balance from text.
func Wallet(text string) WalletInfo {
	info := WalletInfo{
		ETHAddress:   AddressNotFound,
		SOLAddress:   AddressNotFound,
		PerpsBalance: decimal.Zero,
	}
	if m := ethAddrRe.FindStringSubmatch(text); m != nil {
		info.ETHAddress = m[1]
	}
	if m := solAddrRe.FindStringSubmatch(text); m != nil {
		info.SOLAddress = m[1]
	}
	if m := perpsRe.FindStringSubmatch(text); m != nil {
		if d, err := decimal.NewFromString(m[1]); err == nil {
			info.PerpsBalance = d
		}
	}
	return info
}

// Points returns the first run of digits preceding the word "points", or 0.
func Points(text string) int {
	m := pointsRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// PositionSymbols collects every button label of the message's inline layout
// in row order. A positions-overview reply lists one open symbol per button.
func PositionSymbols(msg chat.Message) []string {
	var symbols []string
	for _, row := range msg.Buttons {
		for _, btn := range row {
			symbols = append(symbols, btn.Label)
		}
	}
	return symbols
}
