package sma

import (
	"context"
	"fmt"
	"math"

	"bodhion/internal/logger"
	"bodhion/internal/pkg/maputil"
	"bodhion/internal/strategy"

	talib "github.com/markcheno/go-talib"
)

const defaultPeriod = 500

// Strategy 是示例均线交叉策略：收盘价上穿 SMA 做多，下穿做空/平仓。
// band 为确认带宽（相对均线的比例）：穿越幅度不超过带宽的视为噪声忽略。
type Strategy struct {
	period   int
	band     float64
	prevDiff float64
	havePrev bool
}

func New(params map[string]any) (strategy.Strategy, error) {
	period := defaultPeriod
	if _, ok := params["period"]; ok {
		period = maputil.Int(params, "period")
	}
	if period < 2 {
		return nil, fmt.Errorf("sma: period must be >= 2, got %d", period)
	}
	band := maputil.Float(params, "band")
	if band < 0 {
		return nil, fmt.Errorf("sma: band must be >= 0, got %v", band)
	}
	return &Strategy{period: period, band: band}, nil
}

func (s *Strategy) Name() string { return "sma" }

func (s *Strategy) Params() map[string]any {
	return map[string]any{"period": s.period, "band": s.band}
}

func (s *Strategy) OnBar(ctx context.Context, bar *strategy.Bar, trader strategy.Trader) error {
	if len(bar.Closes) < s.period {
		return nil
	}
	smaSeries := talib.Sma(bar.Closes, s.period)
	current := smaSeries[len(smaSeries)-1]
	if math.IsNaN(current) {
		return nil
	}
	diff := bar.Candle.Close - current
	defer func() {
		s.prevDiff = diff
		s.havePrev = true
	}()
	if !s.havePrev {
		return nil
	}

	threshold := s.band * math.Abs(current)
	crossedUp := s.prevDiff <= 0 && diff > threshold
	crossedDown := s.prevDiff >= 0 && diff < -threshold
	if !crossedUp && !crossedDown {
		return nil
	}

	pos := trader.Position(bar.Symbol)
	// 以账户估值换算下单数量，反向持仓先平掉。
	amount := trader.Value() / bar.Candle.Close
	if amount <= 0 {
		return nil
	}

	if crossedUp {
		if pos < 0 {
			amount += math.Abs(pos)
		}
		logger.Infof("[sma] %s 上穿 SMA(%d)，买入 %.6f", bar.Symbol, s.period, amount)
		return trader.Buy(ctx, bar.Symbol, amount)
	}
	if pos > 0 {
		amount += pos
	}
	logger.Infof("[sma] %s 下穿 SMA(%d)，卖出 %.6f", bar.Symbol, s.period, amount)
	return trader.Sell(ctx, bar.Symbol, amount)
}

func init() {
	strategy.Register("sma", strategy.Descriptor{
		Factory: New,
		Grid: []map[string]any{
			{"period": 50},
			{"period": 100},
			{"period": 200},
			{"period": 500},
		},
	})
}
