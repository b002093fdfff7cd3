package symbol

import "strings"

// BinanceConverter 把内部交易对转成 binance 原生写法（去掉斜杠）。
type BinanceConverter struct{}

func (BinanceConverter) ToExchange(internal string) string {
	s := strings.ToUpper(strings.TrimSpace(internal))
	return strings.ReplaceAll(s, "/", "")
}

var Binance = BinanceConverter{}
