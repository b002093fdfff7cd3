package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptsCommonSpellings(t *testing.T) {
	cases := []struct {
		in   string
		base string
	}{
		{"BTC/USDT", "BTC"},
		{"btc/usdt", "BTC"},
		{" eth/usdt ", "ETH"},
		{"BTC/USDT:USDT", "BTC"},
		{"BTCUSDT", "BTC"},
		{"solusdt", "SOL"},
	}
	for _, tc := range cases {
		sym := Parse(tc.in)
		assert.Equal(t, tc.base, sym.Base, "input %q", tc.in)
		assert.Equal(t, "USDT", sym.Quote, "input %q", tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "USDT", "???", "BTC-USDT"} {
		assert.False(t, IsValid(in), "input %q", in)
		assert.Empty(t, Normalize(in), "input %q", in)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	assert.Equal(t, "BTC/USDT", Normalize("btcusdt"))
	assert.Equal(t, "BTC/USDT", Normalize("BTC/USDT"))
}

func TestBinanceConverterStripsSlash(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Binance.ToExchange("btc/usdt"))
	assert.Equal(t, "ETHUSDT", Binance.ToExchange("ETHUSDT"))
}
