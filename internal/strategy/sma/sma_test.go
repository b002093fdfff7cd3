package sma

import (
	"context"
	"testing"

	"bodhion/internal/market"
	"bodhion/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTrader struct {
	buys     int
	sells    int
	position float64
}

func (t *recordingTrader) Buy(_ context.Context, _ string, amount float64) error {
	t.buys++
	t.position += amount
	return nil
}

func (t *recordingTrader) Sell(_ context.Context, _ string, amount float64) error {
	t.sells++
	t.position -= amount
	return nil
}

func (t *recordingTrader) Position(string) float64 { return t.position }

func (t *recordingTrader) Cash() float64 { return 100 }

func (t *recordingTrader) Value() float64 { return 100 }

func candlesFromCloses(closes ...float64) []market.Candle {
	out := make([]market.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, market.Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i+1)*60_000 - 1,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		})
	}
	return out
}

func replay(t *testing.T, s strategy.Strategy, candles []market.Candle, trader strategy.Trader) {
	t.Helper()
	for i := range candles {
		bar := &strategy.Bar{
			Feed:   "btc",
			Symbol: "BTC/USDT",
			Candle: candles[i],
			Closes: market.Closes(candles[:i+1]),
		}
		require.NoError(t, s.OnBar(context.Background(), bar, trader))
	}
}

func TestCrossoverTradesBothDirections(t *testing.T) {
	s, err := New(map[string]any{"period": 2})
	require.NoError(t, err)

	trader := &recordingTrader{}
	// 收盘 9 下穿 SMA(2)=9.5 触发卖出，随后 12 上穿 10.5 触发买入。
	replay(t, s, candlesFromCloses(10, 10, 9, 12), trader)

	assert.Equal(t, 1, trader.sells)
	assert.Equal(t, 1, trader.buys)
}

func TestBandSuppressesShallowCrossings(t *testing.T) {
	s, err := New(map[string]any{"period": 2, "band": 0.2})
	require.NoError(t, err)

	trader := &recordingTrader{}
	replay(t, s, candlesFromCloses(10, 10, 9, 12), trader)

	assert.Zero(t, trader.sells)
	assert.Zero(t, trader.buys)
}

func TestNewRejectsBadParams(t *testing.T) {
	_, err := New(map[string]any{"period": 1})
	require.Error(t, err)

	_, err = New(map[string]any{"band": -0.1})
	require.Error(t, err)
}

func TestParamsSnapshot(t *testing.T) {
	s, err := New(map[string]any{"period": 50, "band": 0.01})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"period": 50, "band": 0.01}, s.Params())
}
