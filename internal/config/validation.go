package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Signals.validate(); err != nil {
		return err
	}
	if err := c.Compare.validate(); err != nil {
		return err
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if d.TradeLimit <= 0 {
		return fmt.Errorf("database.trade_limit must be > 0")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if strings.TrimSpace(m.RESTBaseURL) == "" {
		return fmt.Errorf("market.rest_base_url cannot be empty")
	}
	if _, err := url.Parse(m.RESTBaseURL); err != nil {
		return fmt.Errorf("market.rest_base_url invalid: %w", err)
	}
	if m.ProxyURL != "" {
		if _, err := url.Parse(m.ProxyURL); err != nil {
			return fmt.Errorf("market.proxy_url invalid: %w", err)
		}
	}
	return nil
}

func (s *SignalsConfig) validate() error {
	if strings.TrimSpace(s.APIURL) == "" {
		return fmt.Errorf("signals.api_url cannot be empty")
	}
	if _, err := url.Parse(s.APIURL); err != nil {
		return fmt.Errorf("signals.api_url invalid: %w", err)
	}
	return nil
}

func (c *CompareConfig) validate() error {
	if c.WindowHours <= 0 {
		return fmt.Errorf("compare.window_hours must be > 0")
	}
	if c.LateFetchMinutes <= 0 {
		return fmt.Errorf("compare.late_fetch_minutes must be > 0")
	}
	if c.PriceGapPct <= 0 {
		return fmt.Errorf("compare.price_gap_pct must be > 0")
	}
	if c.CloseTimeGapMinutes <= 0 {
		return fmt.Errorf("compare.close_time_gap_minutes must be > 0")
	}
	if c.ClosePriceGapPct <= 0 {
		return fmt.Errorf("compare.close_price_gap_pct must be > 0")
	}
	if c.DropThresholdPct <= 0 || c.DropThresholdPct >= 100 {
		return fmt.Errorf("compare.drop_threshold_pct must be in (0,100)")
	}
	if c.RefreshSeconds < 30 {
		return fmt.Errorf("compare.refresh_seconds must be >= 30")
	}
	return nil
}
