package config

// applyDefaults fills unset fields with the timings the upstream bot is known
// to tolerate.
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":9982"
	}
	if c.Gateway.Bot == "" {
		c.Gateway.Bot = "@pvptrade_bot"
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		c.Gateway.TimeoutSeconds = 15
	}
	if c.Accounts.Path == "" {
		c.Accounts.Path = "accounts.yaml"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/perpfarm.db"
	}

	if c.Trading.StopLossMin == 0 && c.Trading.StopLossMax == 0 {
		c.Trading.StopLossMin = 5
		c.Trading.StopLossMax = 10
	}

	if c.Rounds.OpenDelayMinS == 0 && c.Rounds.OpenDelayMaxS == 0 {
		c.Rounds.OpenDelayMinS = 20
		c.Rounds.OpenDelayMaxS = 40
	}
	if c.Rounds.CloseDelayMinS == 0 && c.Rounds.CloseDelayMaxS == 0 {
		c.Rounds.CloseDelayMinS = 25
		c.Rounds.CloseDelayMaxS = 45
	}
	if c.Rounds.CooldownS <= 0 {
		c.Rounds.CooldownS = 5
	}

	t := &c.Timing
	if t.Order.SettleS <= 0 {
		t.Order.SettleS = 5
	}
	if t.Order.Attempts <= 0 {
		t.Order.Attempts = 3
	}
	if t.Order.FetchLimit <= 0 {
		t.Order.FetchLimit = 5
	}

	if t.StopLoss.SettleS <= 0 {
		t.StopLoss.SettleS = 3
	}
	if t.StopLoss.Attempts <= 0 {
		t.StopLoss.Attempts = 5
	}
	if t.StopLoss.FetchLimit <= 0 {
		t.StopLoss.FetchLimit = 10
	}
	if t.StopLoss.RetryS <= 0 {
		t.StopLoss.RetryS = 2
	}
	if t.StopLoss.AfterClickS <= 0 {
		t.StopLoss.AfterClickS = 4
	}
	if t.StopLoss.AfterValueS <= 0 {
		t.StopLoss.AfterValueS = 3
	}
	if t.StopLoss.ConfirmFetchLimit <= 0 {
		t.StopLoss.ConfirmFetchLimit = 5
	}

	if t.Close.SettleS <= 0 {
		t.Close.SettleS = 2
	}
	if t.Close.Attempts <= 0 {
		t.Close.Attempts = 5
	}
	if t.Close.IntervalS <= 0 {
		t.Close.IntervalS = 1
	}
	if t.Close.FetchLimit <= 0 {
		t.Close.FetchLimit = 5
	}

	if t.Info.Attempts <= 0 {
		t.Info.Attempts = 5
	}
	if t.Info.IntervalS <= 0 {
		t.Info.IntervalS = 2
	}
	if t.Info.WalletFetchLimit <= 0 {
		t.Info.WalletFetchLimit = 10
	}
	if t.Info.PointsFetchLimit <= 0 {
		t.Info.PointsFetchLimit = 5
	}
}
