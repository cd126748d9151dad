package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decimal wraps decimal.Decimal so it can be read straight out of YAML.
// Money-valued config fields must never pass through a float.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", value.Value, err)
	}
	d.Decimal = parsed
	return nil
}

type Config struct {
	Mode        string `yaml:"mode"`
	Symbol      string `yaml:"symbol"`
	RequestHost string `yaml:"request_host"`
	EnvFilePath string `yaml:"env_file_path"`

	Model struct {
		Path             string `yaml:"path"`
		TrainingDataPath string `yaml:"training_data_path"`
	} `yaml:"model"`

	RiskTolerance            float64 `yaml:"risk_tolerance"`
	IntervalSeconds          int     `yaml:"interval_seconds"`
	PredictionInterval       int     `yaml:"prediction_interval"`
	SequenceLength           int     `yaml:"sequence_length"`
	LimitOffset              Decimal `yaml:"limit_offset"`
	TradePercentageThreshold Decimal `yaml:"trade_percentage_threshold"`

	Logs struct {
		PriceLogPath      string `yaml:"price_log_path"`
		PredictionLogPath string `yaml:"prediction_log_path"`
	} `yaml:"logs"`
}

// ProductID is the exchange product the bot trades, always quoted in USD.
func (c *Config) ProductID() string {
	return c.Symbol + "-USD"
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Symbol == "" {
		return errors.New("symbol cannot be empty")
	}
	if c.SequenceLength <= 0 {
		return fmt.Errorf("sequence_length must be positive, got %d", c.SequenceLength)
	}
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %d", c.IntervalSeconds)
	}
	if c.RiskTolerance <= 0 || c.RiskTolerance > 1 {
		return fmt.Errorf("risk_tolerance must be in (0,1], got %.4f", c.RiskTolerance)
	}
	if c.TradePercentageThreshold.IsNegative() {
		return fmt.Errorf("trade_percentage_threshold cannot be negative, got %s", c.TradePercentageThreshold)
	}
	if c.LimitOffset.IsNegative() {
		return fmt.Errorf("limit_offset cannot be negative, got %s", c.LimitOffset)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.RequestHost == "" {
		c.RequestHost = "api.coinbase.com"
	}
	if c.PredictionInterval == 0 {
		c.PredictionInterval = 5
	}
	if c.Logs.PriceLogPath == "" {
		c.Logs.PriceLogPath = "prices.log"
	}
	if c.Logs.PredictionLogPath == "" {
		c.Logs.PredictionLogPath = "predictions.log"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
