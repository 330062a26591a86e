package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"SilverSnap/internal/calculator"
	"SilverSnap/internal/model"
	"SilverSnap/internal/strategy"
)

// Config holds all application configuration. Defaults describe the silver
// play (SLV 1x / AGQ 2x); swap the symbols section to move the strategy to
// another asset.
type Config struct {
	AssetName string `yaml:"asset_name"`

	Symbols struct {
		Conservative string `yaml:"conservative"`
		Leveraged    string `yaml:"leveraged"`
		Reference    string `yaml:"reference"`
	} `yaml:"symbols"`

	Entry struct {
		ThresholdMin       float64 `yaml:"threshold_min"`
		ThresholdLeveraged float64 `yaml:"threshold_leveraged"`
	} `yaml:"entry"`

	Exit struct {
		TargetGain           float64 `yaml:"target_gain"`
		StopLossConservative float64 `yaml:"stop_loss_conservative"`
		StopLossLeveraged    float64 `yaml:"stop_loss_leveraged"`
		MaxHoldDays          int     `yaml:"max_hold_days"`
	} `yaml:"exit"`

	Indicators struct {
		RSIPeriod    int     `yaml:"rsi_period"`
		PSARStep     float64 `yaml:"psar_step"`
		PSARMax      float64 `yaml:"psar_max"`
		LookbackDays int     `yaml:"lookback_days"`
	} `yaml:"indicators"`

	Windows struct {
		ExitReviewStart   string `yaml:"exit_review_start"`
		ExitReviewEnd     string `yaml:"exit_review_end"`
		SilverBulletStart string `yaml:"silver_bullet_start"`
		SilverBulletEnd   string `yaml:"silver_bullet_end"`
		SilverBulletRef   string `yaml:"silver_bullet_ref"` // prior_close | session_open
		Timezone          string `yaml:"timezone"`
	} `yaml:"windows"`

	Schedule struct {
		PostmarketCron   string `yaml:"postmarket_cron"`
		ExitCron         string `yaml:"exit_cron"`
		SilverBulletCron string `yaml:"silver_bullet_cron"`
	} `yaml:"schedule"`

	DataSource struct {
		TwelveDataAPIKey string `yaml:"twelve_data_api_key"`
		BaseURL          string `yaml:"base_url"`
	} `yaml:"data_source"`

	Schwab struct {
		AppKey       string `yaml:"app_key"`
		AppSecret    string `yaml:"app_secret"`
		RefreshToken string `yaml:"refresh_token"`
		AccountHash  string `yaml:"account_hash"`
	} `yaml:"schwab"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Account struct {
		Capital   float64 `yaml:"capital"`
		StateFile string  `yaml:"state_file"`
	} `yaml:"account"`

	Execute bool   `yaml:"execute"` // place real orders instead of logging them
	Proxy   string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; env and defaults
// can carry the whole configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
		cfg.DataSource.TwelveDataAPIKey = v
	}
	if v := os.Getenv("SCHWAB_APP_KEY"); v != "" {
		cfg.Schwab.AppKey = v
	}
	if v := os.Getenv("SCHWAB_APP_SECRET"); v != "" {
		cfg.Schwab.AppSecret = v
	}
	if v := os.Getenv("SCHWAB_REFRESH_TOKEN"); v != "" {
		cfg.Schwab.RefreshToken = v
	}
	if v := os.Getenv("SCHWAB_ACCOUNT_HASH"); v != "" {
		cfg.Schwab.AccountHash = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.Capital = capital
		}
	}
	if v := os.Getenv("EXECUTE_TRADES"); v == "true" {
		cfg.Execute = true
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AssetName == "" {
		c.AssetName = "Silver"
	}
	if c.Symbols.Conservative == "" {
		c.Symbols.Conservative = "SLV"
	}
	if c.Symbols.Leveraged == "" {
		c.Symbols.Leveraged = "AGQ"
	}
	if c.Symbols.Reference == "" {
		c.Symbols.Reference = c.Symbols.Conservative
	}
	if c.Entry.ThresholdMin == 0 {
		c.Entry.ThresholdMin = 0.02
	}
	if c.Entry.ThresholdLeveraged == 0 {
		c.Entry.ThresholdLeveraged = 0.04
	}
	if c.Exit.TargetGain == 0 {
		c.Exit.TargetGain = 0.05
	}
	if c.Exit.StopLossConservative == 0 {
		c.Exit.StopLossConservative = 0.05
	}
	if c.Exit.StopLossLeveraged == 0 {
		c.Exit.StopLossLeveraged = 0.07
	}
	if c.Exit.MaxHoldDays == 0 {
		c.Exit.MaxHoldDays = 2
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.PSARStep == 0 {
		c.Indicators.PSARStep = 0.02
	}
	if c.Indicators.PSARMax == 0 {
		c.Indicators.PSARMax = 0.20
	}
	if c.Indicators.LookbackDays == 0 {
		c.Indicators.LookbackDays = 60
	}
	if c.Windows.ExitReviewStart == "" {
		c.Windows.ExitReviewStart = "11:30"
	}
	if c.Windows.ExitReviewEnd == "" {
		c.Windows.ExitReviewEnd = "12:30"
	}
	if c.Windows.SilverBulletStart == "" {
		c.Windows.SilverBulletStart = "10:00"
	}
	if c.Windows.SilverBulletEnd == "" {
		c.Windows.SilverBulletEnd = "11:00"
	}
	if c.Windows.SilverBulletRef == "" {
		c.Windows.SilverBulletRef = "prior_close"
	}
	if c.Windows.Timezone == "" {
		c.Windows.Timezone = "America/New_York"
	}
	// Cron specs include seconds; schedule defaults cover the three
	// evaluation windows on trading weekdays, in the configured timezone.
	if c.Schedule.PostmarketCron == "" {
		c.Schedule.PostmarketCron = "0 */10 16-19 * * 1-5"
	}
	if c.Schedule.ExitCron == "" {
		c.Schedule.ExitCron = "0 */10 11-12 * * 1-5"
	}
	if c.Schedule.SilverBulletCron == "" {
		c.Schedule.SilverBulletCron = "0 */10 10 * * 1-5"
	}
	if c.Account.Capital == 0 {
		c.Account.Capital = 1000
	}
	if c.Account.StateFile == "" {
		c.Account.StateFile = "data/paper_state.json"
	}
}

// Validate checks for configuration the engine cannot run with. All rejects
// wrap model.ErrInvalidConfiguration so callers can distinguish them from
// runtime failures.
func (c *Config) Validate() error {
	if c.Entry.ThresholdMin <= 0 || c.Entry.ThresholdLeveraged <= 0 {
		return fmt.Errorf("%w: entry thresholds must be positive", model.ErrInvalidConfiguration)
	}
	if c.Entry.ThresholdLeveraged < c.Entry.ThresholdMin {
		return fmt.Errorf("%w: entry.threshold_leveraged below entry.threshold_min", model.ErrInvalidConfiguration)
	}
	if c.Exit.TargetGain <= 0 || c.Exit.TargetGain >= 1 {
		return fmt.Errorf("%w: exit.target_gain must be in (0, 1)", model.ErrInvalidConfiguration)
	}
	if c.Exit.StopLossConservative <= 0 || c.Exit.StopLossConservative >= 1 ||
		c.Exit.StopLossLeveraged <= 0 || c.Exit.StopLossLeveraged >= 1 {
		return fmt.Errorf("%w: stop losses must be in (0, 1)", model.ErrInvalidConfiguration)
	}
	if c.Exit.MaxHoldDays < 1 {
		return fmt.Errorf("%w: exit.max_hold_days must be at least 1", model.ErrInvalidConfiguration)
	}
	if c.Indicators.RSIPeriod < 2 {
		return fmt.Errorf("%w: indicators.rsi_period must be at least 2", model.ErrInvalidConfiguration)
	}
	if c.Indicators.LookbackDays < 2*c.Indicators.RSIPeriod {
		return fmt.Errorf("%w: indicators.lookback_days must cover twice the rsi period", model.ErrInvalidConfiguration)
	}
	sar := calculator.SARParams{Step: c.Indicators.PSARStep, Max: c.Indicators.PSARMax}
	if err := sar.Validate(); err != nil {
		return err
	}
	switch c.Windows.SilverBulletRef {
	case "prior_close", "session_open":
	default:
		return fmt.Errorf("%w: windows.silver_bullet_ref must be prior_close or session_open, got %q",
			model.ErrInvalidConfiguration, c.Windows.SilverBulletRef)
	}
	if c.Account.Capital <= 0 {
		return fmt.Errorf("%w: account.capital must be positive", model.ErrInvalidConfiguration)
	}
	// EngineParams runs the engine's own construction-time checks (windows,
	// timezone) so a bad value fails here rather than on the first cycle.
	if _, err := strategy.NewEngine(c.EngineParams()); err != nil {
		return err
	}
	return nil
}

// EngineParams maps the config onto the decision engine's parameter set.
func (c *Config) EngineParams() strategy.Params {
	return strategy.Params{
		ConservativeSymbol:      c.Symbols.Conservative,
		LeveragedSymbol:         c.Symbols.Leveraged,
		EntryThresholdMin:       c.Entry.ThresholdMin,
		EntryThresholdLeveraged: c.Entry.ThresholdLeveraged,
		TargetGain:              c.Exit.TargetGain,
		StopLossConservative:    c.Exit.StopLossConservative,
		StopLossLeveraged:       c.Exit.StopLossLeveraged,
		MaxHold:                 time.Duration(c.Exit.MaxHoldDays) * 24 * time.Hour,
		RSIPeriod:               c.Indicators.RSIPeriod,
		SAR:                     calculator.SARParams{Step: c.Indicators.PSARStep, Max: c.Indicators.PSARMax},
		ExitWindowStart:         c.Windows.ExitReviewStart,
		ExitWindowEnd:           c.Windows.ExitReviewEnd,
		Timezone:                c.Windows.Timezone,
	}
}
