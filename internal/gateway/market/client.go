package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	symbolpkg "labdash/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2/futures"
)

const maxKlineLimit = 1500

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

// Client 基于 go-binance SDK 代理行情数据。
type Client struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) (*Client, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyURL != "" {
		proxyURL, err := url.Parse(final.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Client{cfg: final, client: client}, nil
}

// Klines fetches historical candles for a symbol. The interval accepts the
// dashboard chart notations ("60", "240", "D") as well as native ones.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("market client 未初始化")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	// Binance requires symbols without slashes (e.g., ETHUSDT)
	cleanSymbol := symbolpkg.ToExchange(symbol)
	if cleanSymbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	svc := c.client.NewKlinesService().
		Symbol(cleanSymbol).
		Interval(NormalizeInterval(interval)).
		Limit(limit)
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

var nativeIntervalRe = regexp.MustCompile(`(?i)^\d+[mhd]$`)

// NormalizeInterval maps chart interval notation onto Binance kline intervals.
// Bare minute counts ("15") become "15m", "60" becomes "1h", "240" becomes
// "4h" and "D" becomes "1d". Native notations pass through lowercased.
func NormalizeInterval(val string) string {
	raw := strings.TrimSpace(val)
	if raw == "" {
		return "15m"
	}
	switch raw {
	case "60":
		return "1h"
	case "240":
		return "4h"
	case "D", "1d", "1D":
		return "1d"
	}
	if nativeIntervalRe.MatchString(raw) {
		return strings.ToLower(raw)
	}
	return raw + "m"
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
