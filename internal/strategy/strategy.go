package strategy

import (
	"context"

	"bodhion/internal/market"
)

// Trader 是策略可用的交易与账户查询界面。
// 回测由模拟 broker 实现，实盘由真实 broker 适配器实现。
type Trader interface {
	Buy(ctx context.Context, symbol string, amount float64) error

	Sell(ctx context.Context, symbol string, amount float64) error

	// Position 返回当前持仓数量，做空为负。
	Position(symbol string) float64

	Cash() float64

	Value() float64
}

// Bar 是一次行情推进：当前 K 线与该路行情的历史收盘序列（含当前）。
type Bar struct {
	Feed   string
	Symbol string
	Candle market.Candle
	Closes []float64
}

// Strategy 是可插拔交易策略。每根已收盘 K 线触发一次 OnBar。
type Strategy interface {
	Name() string

	// Params 返回本实例的参数快照（用于优化结果标注）。
	Params() map[string]any

	OnBar(ctx context.Context, bar *Bar, trader Trader) error
}
