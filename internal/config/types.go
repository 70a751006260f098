package config

import "strings"

// Config 是 labdash 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	Market   MarketConfig   `toml:"market"`
	Signals  SignalsConfig  `toml:"signals"`
	Compare  CompareConfig  `toml:"compare"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type DatabaseConfig struct {
	Path       string `toml:"path"`
	TradeLimit int    `toml:"trade_limit"`
}

type MarketConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ProxyURL       string `toml:"proxy_url"`
}

// SignalsConfig 描述外部信号计算服务的访问方式。
type SignalsConfig struct {
	APIURL             string `toml:"api_url"`
	APIToken           string `toml:"api_token"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// CompareConfig 控制对账引擎的阈值与刷新节奏。
type CompareConfig struct {
	WindowHours          float64 `toml:"window_hours"`
	LateFetchMinutes     float64 `toml:"late_fetch_minutes"`
	PriceGapPct          float64 `toml:"price_gap_pct"`
	CloseTimeGapMinutes  float64 `toml:"close_time_gap_minutes"`
	ClosePriceGapPct     float64 `toml:"close_price_gap_pct"`
	ProfitFloor          float64 `toml:"profit_floor"`
	DropThresholdPct     float64 `toml:"drop_threshold_pct"`
	DefaultBackendID     string  `toml:"default_backend_machine"`
	RefreshSeconds       int     `toml:"refresh_seconds"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
