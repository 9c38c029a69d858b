package config

import "time"

// Config is the top-level configuration tree.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Rounds   RoundsConfig   `mapstructure:"rounds"`
	Timing   TimingConfig   `mapstructure:"timing"`
	Store    StoreConfig    `mapstructure:"store"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	HTTPAddr string `mapstructure:"http_addr"`
}

// GatewayConfig describes the session gateway the connectivity layer talks
// to. Token falls back to the GATEWAY_TOKEN environment variable.
type GatewayConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	Bot            string `mapstructure:"bot"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type AccountsConfig struct {
	Path string `mapstructure:"path"`
}

// TradingConfig holds the value universes orders are sampled from. Values are
// opaque to the engines beyond non-emptiness.
type TradingConfig struct {
	Tickers     []string `mapstructure:"tickers"`
	Leverages   []int    `mapstructure:"leverages"`
	AmountMin   float64  `mapstructure:"amount_min"`
	AmountMax   float64  `mapstructure:"amount_max"`
	StopLossMin int      `mapstructure:"stop_loss_min"`
	StopLossMax int      `mapstructure:"stop_loss_max"`
}

// RoundsConfig controls the open→hold→close cadence, in seconds.
type RoundsConfig struct {
	OpenDelayMinS  int `mapstructure:"open_delay_min_s"`
	OpenDelayMaxS  int `mapstructure:"open_delay_max_s"`
	CloseDelayMinS int `mapstructure:"close_delay_min_s"`
	CloseDelayMaxS int `mapstructure:"close_delay_max_s"`
	CooldownS      int `mapstructure:"cooldown_s"`
}

func (r RoundsConfig) Cooldown() time.Duration {
	return time.Duration(r.CooldownS) * time.Second
}

// TimingConfig carries every attempt budget and settle delay as explicit
// configuration rather than magic constants. Budgets are attempt-count times
// a fixed interval, not wall-clock deadlines.
type TimingConfig struct {
	Order    OrderTimingConfig    `mapstructure:"order"`
	StopLoss StopLossTimingConfig `mapstructure:"stoploss"`
	Close    CloseTimingConfig    `mapstructure:"close"`
	Info     InfoTimingConfig     `mapstructure:"info"`
}

type OrderTimingConfig struct {
	SettleS    int `mapstructure:"settle_s"`
	Attempts   int `mapstructure:"attempts"`
	FetchLimit int `mapstructure:"fetch_limit"`
}

type StopLossTimingConfig struct {
	SettleS           int `mapstructure:"settle_s"`
	Attempts          int `mapstructure:"attempts"`
	FetchLimit        int `mapstructure:"fetch_limit"`
	RetryS            int `mapstructure:"retry_s"`
	AfterClickS       int `mapstructure:"after_click_s"`
	AfterValueS       int `mapstructure:"after_value_s"`
	ConfirmFetchLimit int `mapstructure:"confirm_fetch_limit"`
}

type CloseTimingConfig struct {
	SettleS    int `mapstructure:"settle_s"`
	Attempts   int `mapstructure:"attempts"`
	IntervalS  int `mapstructure:"interval_s"`
	FetchLimit int `mapstructure:"fetch_limit"`
}

type InfoTimingConfig struct {
	Attempts         int `mapstructure:"attempts"`
	IntervalS        int `mapstructure:"interval_s"`
	WalletFetchLimit int `mapstructure:"wallet_fetch_limit"`
	PointsFetchLimit int `mapstructure:"points_fetch_limit"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}
