package engine

import (
	"context"
	"testing"
	"time"

	"bodhion/internal/market"
	"bodhion/internal/strategy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	name     string
	dataname string
	candles  []market.Candle
	pos      int
}

func (f *stubFeed) Name() string { return f.name }

func (f *stubFeed) Dataname() string { return f.dataname }

func (f *stubFeed) Next(context.Context) (market.Candle, bool, error) {
	if f.pos >= len(f.candles) {
		return market.Candle{}, false, nil
	}
	c := f.candles[f.pos]
	f.pos++
	return c, true, nil
}

func makeCandles(start time.Time, closes ...float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, close := range closes {
		open := start.Add(time.Duration(i) * time.Minute)
		out[i] = market.Candle{
			OpenTime:  open.UnixMilli(),
			CloseTime: open.Add(time.Minute).UnixMilli() - 1,
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
		}
	}
	return out
}

// buyOnceStrategy 在第 N 根 K 线全仓买入一次。
type buyOnceStrategy struct {
	buyAt  int
	seen   int
	bought bool
	params map[string]any
}

func (s *buyOnceStrategy) Name() string { return "buy-once" }

func (s *buyOnceStrategy) Params() map[string]any { return s.params }

func (s *buyOnceStrategy) OnBar(ctx context.Context, bar *strategy.Bar, trader strategy.Trader) error {
	s.seen++
	if s.bought || s.seen < s.buyAt {
		return nil
	}
	s.bought = true
	amount := trader.Cash() / bar.Candle.Close
	return trader.Buy(ctx, bar.Symbol, amount)
}

func TestBacktestBuyAndHold(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewBarEngine()
	e.AddData(&stubFeed{name: "btc", dataname: "BTCUSDT", candles: makeCandles(start, 100, 100, 200)})
	e.AddStrategy(&buyOnceStrategy{buyAt: 1})
	e.ConfigureSimBroker(decimal.NewFromInt(1000), true, decimal.Zero)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	// 100 买入 10 个，收盘 200 时估值翻倍。
	assert.InDelta(t, 1000.0, result.StartCash, 1e-9)
	assert.InDelta(t, 2000.0, result.FinalValue, 1e-9)
	assert.InDelta(t, 100.0, result.ReturnPct, 1e-9)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "buy", result.Orders[0].Side)
	assert.Equal(t, "BTCUSDT", result.Orders[0].Symbol)
	assert.Len(t, result.Equity, 3)
	assert.InDelta(t, 2000.0, result.Equity[2].Equity, 1e-9)
}

func TestBacktestCommissionCharged(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewBarEngine()
	e.AddData(&stubFeed{name: "btc", dataname: "BTCUSDT", candles: makeCandles(start, 100, 100)})
	e.AddStrategy(&buyOnceStrategy{buyAt: 1})
	e.ConfigureSimBroker(decimal.NewFromInt(1000), true, decimal.NewFromFloat(0.001))

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	// 名义 1000，费率 0.1% 收取 1。
	require.Len(t, result.Orders, 1)
	assert.InDelta(t, 1.0, result.Orders[0].Fee.InexactFloat64(), 1e-9)
	assert.InDelta(t, 999.0, result.FinalValue, 1e-9)
}

func TestSimBrokerShortDisabledClampsSell(t *testing.T) {
	b := NewSimBroker(decimal.NewFromInt(1000), false, decimal.Zero)
	b.Mark("btc", "BTCUSDT", decimal.NewFromInt(100), time.Now())

	require.NoError(t, b.Buy(context.Background(), "BTCUSDT", 2))
	// 超卖被钳制到持仓，不会转成负持仓。
	require.NoError(t, b.Sell(context.Background(), "BTCUSDT", 5))
	assert.InDelta(t, 0.0, b.Position("BTCUSDT"), 1e-9)
	assert.Len(t, b.Orders(), 2)
	assert.InDelta(t, 2.0, b.Orders()[1].Amount.InexactFloat64(), 1e-9)
}

func TestSimBrokerShortEnabledGoesNegative(t *testing.T) {
	b := NewSimBroker(decimal.NewFromInt(1000), true, decimal.Zero)
	b.Mark("btc", "BTCUSDT", decimal.NewFromInt(100), time.Now())

	require.NoError(t, b.Sell(context.Background(), "BTCUSDT", 3))
	assert.InDelta(t, -3.0, b.Position("BTCUSDT"), 1e-9)
}

func TestOptimizeRunsEveryInstance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewBarEngine()
	e.AddData(&stubFeed{name: "btc", dataname: "BTCUSDT", candles: makeCandles(start, 100, 100, 200)})
	e.ConfigureSimBroker(decimal.NewFromInt(1000), true, decimal.Zero)
	e.OptimizeStrategy(func(params map[string]any) (strategy.Strategy, error) {
		return &buyOnceStrategy{buyAt: params["buy_at"].(int), params: params}, nil
	}, []map[string]any{
		{"buy_at": 1},
		{"buy_at": 3},
	})

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Instances, 2)
	// 第一组低位买入翻倍，第二组末根才买没有收益。
	assert.InDelta(t, 2000.0, result.Instances[0].FinalValue, 1e-9)
	assert.InDelta(t, 1000.0, result.Instances[1].FinalValue, 1e-9)
	assert.InDelta(t, 2000.0, result.FinalValue, 1e-9)
}

func TestMergedEventsPreserveFeedOrderOnTies(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewBarEngine()
	e.AddData(&stubFeed{name: "a", dataname: "AAAUSDT", candles: makeCandles(start, 1, 2)})
	e.AddData(&stubFeed{name: "b", dataname: "BBBUSDT", candles: makeCandles(start, 3, 4)})

	require.NoError(t, e.drainFeeds(context.Background()))
	merged := e.mergedEvents()
	require.Len(t, merged, 4)
	assert.Equal(t, []int{0, 1, 0, 1}, []int{
		merged[0].feedIdx, merged[1].feedIdx, merged[2].feedIdx, merged[3].feedIdx,
	})
}

func TestRunWithoutSimBrokerFails(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewBarEngine()
	e.AddData(&stubFeed{name: "btc", dataname: "BTCUSDT", candles: makeCandles(start, 100)})

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sim broker not configured")
}
