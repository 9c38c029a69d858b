package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if len(c.Trading.Tickers) == 0 {
		return fmt.Errorf("trading.tickers cannot be empty")
	}
	if len(c.Trading.Leverages) == 0 {
		return fmt.Errorf("trading.leverages cannot be empty")
	}
	for _, lev := range c.Trading.Leverages {
		if lev <= 0 {
			return fmt.Errorf("trading.leverages must be positive, got %d", lev)
		}
	}
	if c.Trading.AmountMin <= 0 {
		return fmt.Errorf("trading.amount_min must be positive")
	}
	if c.Trading.AmountMax < c.Trading.AmountMin {
		return fmt.Errorf("trading.amount_max (%v) below amount_min (%v)",
			c.Trading.AmountMax, c.Trading.AmountMin)
	}
	if c.Trading.StopLossMin < 1 || c.Trading.StopLossMax > 100 ||
		c.Trading.StopLossMax < c.Trading.StopLossMin {
		return fmt.Errorf("trading stop loss range [%d,%d] invalid",
			c.Trading.StopLossMin, c.Trading.StopLossMax)
	}
	if c.Rounds.OpenDelayMaxS < c.Rounds.OpenDelayMinS {
		return fmt.Errorf("rounds.open_delay_max_s below open_delay_min_s")
	}
	if c.Rounds.CloseDelayMaxS < c.Rounds.CloseDelayMinS {
		return fmt.Errorf("rounds.close_delay_max_s below close_delay_min_s")
	}
	return nil
}
