package config

import "strings"

// 默认值常量
const (
	defaultAppEnv              = "dev"
	defaultAppLogLevel         = "info"
	defaultAppHTTPAddr         = ":9992"
	defaultAppLogPath          = "/data/logs/labdash.log"
	defaultDatabasePath        = "/data/db/labdash.db"
	defaultDatabaseTradeLimit  = 1000
	defaultMarketREST          = "https://fapi.binance.com"
	defaultMarketTimeout       = 15
	defaultSignalsAPI          = "http://signals:5001"
	defaultSignalsTimeout      = 30
	defaultCompareWindowHours  = 4
	defaultLateFetchMinutes    = 5
	defaultPriceGapPct         = 15
	defaultCloseTimeGapMinutes = 16
	defaultClosePriceGapPct    = 15
	defaultProfitFloor         = 20
	defaultDropThresholdPct    = 20
	defaultBackendMachine      = "9"
	defaultRefreshSeconds      = 300
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Signals.applyDefaults(keys)
	c.Compare.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("database.path", &d.Path, defaultDatabasePath),
		fieldDefault{
			key:   "database.trade_limit",
			need:  func() bool { return d.TradeLimit <= 0 },
			apply: func() { d.TradeLimit = defaultDatabaseTradeLimit },
		},
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.rest_base_url", &m.RESTBaseURL, defaultMarketREST),
		fieldDefault{
			key:   "market.timeout_seconds",
			need:  func() bool { return m.TimeoutSeconds <= 0 },
			apply: func() { m.TimeoutSeconds = defaultMarketTimeout },
		},
	)
}

func (s *SignalsConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("signals.api_url", &s.APIURL, defaultSignalsAPI),
		fieldDefault{
			key:   "signals.timeout_seconds",
			need:  func() bool { return s.TimeoutSeconds <= 0 },
			apply: func() { s.TimeoutSeconds = defaultSignalsTimeout },
		},
	)
}

func (c *CompareConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("compare.default_backend_machine", &c.DefaultBackendID, defaultBackendMachine),
		fieldDefault{
			key:   "compare.window_hours",
			need:  func() bool { return c.WindowHours <= 0 },
			apply: func() { c.WindowHours = defaultCompareWindowHours },
		},
		fieldDefault{
			key:   "compare.late_fetch_minutes",
			need:  func() bool { return c.LateFetchMinutes <= 0 },
			apply: func() { c.LateFetchMinutes = defaultLateFetchMinutes },
		},
		fieldDefault{
			key:   "compare.price_gap_pct",
			need:  func() bool { return c.PriceGapPct <= 0 },
			apply: func() { c.PriceGapPct = defaultPriceGapPct },
		},
		fieldDefault{
			key:   "compare.close_time_gap_minutes",
			need:  func() bool { return c.CloseTimeGapMinutes <= 0 },
			apply: func() { c.CloseTimeGapMinutes = defaultCloseTimeGapMinutes },
		},
		fieldDefault{
			key:   "compare.close_price_gap_pct",
			need:  func() bool { return c.ClosePriceGapPct <= 0 },
			apply: func() { c.ClosePriceGapPct = defaultClosePriceGapPct },
		},
		fieldDefault{
			key:   "compare.profit_floor",
			need:  func() bool { return c.ProfitFloor <= 0 },
			apply: func() { c.ProfitFloor = defaultProfitFloor },
		},
		fieldDefault{
			key:   "compare.drop_threshold_pct",
			need:  func() bool { return c.DropThresholdPct <= 0 },
			apply: func() { c.DropThresholdPct = defaultDropThresholdPct },
		},
		fieldDefault{
			key:   "compare.refresh_seconds",
			need:  func() bool { return c.RefreshSeconds <= 0 },
			apply: func() { c.RefreshSeconds = defaultRefreshSeconds },
		},
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
