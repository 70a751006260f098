// Package symbol 统一交易对符号的书写形式。仪表盘数据里同一交易对会以
// "ETH/USDT"、"ETHUSDT" 甚至 "ETH/USDT:USDT" 混用,交易所接口只接受无斜杠形式。
package symbol

import "strings"

type Symbol struct {
	Base  string
	Quote string
}

// Internal 返回 "BASE/QUOTE" 形式。
func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

// Exchange 返回无斜杠的交易所形式("ETHUSDT")。
func (s Symbol) Exchange() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

var quoteCurrencies = []string{"USDT", "BUSD", "USDC", "TUSD", "BTC", "ETH", "BNB"}

// Parse 接受任意常见书写形式。结算后缀(":USDT")被丢弃;无斜杠形式按
// 已知计价币种拆分。识别失败返回零值。
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}
	if parts := strings.SplitN(s, "/", 2); len(parts) == 2 {
		return Symbol{
			Base:  strings.TrimSpace(parts[0]),
			Quote: strings.TrimSpace(parts[1]),
		}
	}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{Base: s[:len(s)-len(quote)], Quote: quote}
		}
	}
	return Symbol{}
}

// ToExchange 将任意书写形式转为交易所形式。无法解析时退化为
// 去斜杠加大写,尽量保住请求。
func ToExchange(s string) string {
	if sym := Parse(s); sym.Base != "" {
		return sym.Exchange()
	}
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "/", ""))
}
