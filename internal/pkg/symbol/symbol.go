// Package symbol 处理交易对标识：内部统一用 BASE/QUOTE 形式，
// 发往交易所前再转成其原生写法。
package symbol

import (
	"strings"
)

type Symbol struct {
	Base  string
	Quote string
}

// Internal 返回内部统一形式（BASE/QUOTE），不完整的交易对返回空串。
func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

// Parse 宽松解析交易对：接受 BASE/QUOTE、带结算后缀（BTC/USDT:USDT）
// 以及常见计价币种拼接写法（BTCUSDT）。无法识别返回零值。
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

	quoteCurrencies := []string{"USDT", "BUSD", "USDC", "TUSD", "BTC", "ETH", "BNB"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}

	return Symbol{}
}

// Normalize 把任意写法归一为内部形式，无法识别返回空串。
func Normalize(s string) string {
	return Parse(s).Internal()
}

// IsValid 报告 s 是否能解析为完整交易对。
func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}
