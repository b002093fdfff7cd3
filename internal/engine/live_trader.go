package engine

import (
	"context"
	"time"

	"bodhion/internal/gateway/exchange"
	"bodhion/internal/logger"

	"github.com/shopspring/decimal"
)

// liveTrader 把实盘 broker 适配成 strategy.Trader。
// 持仓在本地累计（交易所侧的持仓查询不在此层），
// 所有调用都发生在引擎的单消费者 goroutine 上。
type liveTrader struct {
	ctx    context.Context
	broker exchange.Broker

	positions map[string]decimal.Decimal
	orders    []OrderRecord
	lastCash  float64
	lastValue float64
}

func newLiveTrader(ctx context.Context, broker exchange.Broker) *liveTrader {
	return &liveTrader{
		ctx:       ctx,
		broker:    broker,
		positions: map[string]decimal.Decimal{},
	}
}

func (t *liveTrader) submit(ctx context.Context, symbol string, side exchange.OrderSide, amount float64) error {
	qty := decimal.NewFromFloat(amount)
	order, err := t.broker.Submit(ctx, exchange.OrderRequest{
		Symbol: symbol,
		Type:   exchange.OrderTypeMarket,
		Side:   side,
		Amount: qty,
	})
	if err != nil {
		return err
	}
	pos := t.positions[symbol]
	if side == exchange.SideBuy {
		t.positions[symbol] = pos.Add(qty)
	} else {
		t.positions[symbol] = pos.Sub(qty)
	}
	t.orders = append(t.orders, OrderRecord{
		Time:   time.Now().UTC(),
		Symbol: symbol,
		Side:   string(side),
		Amount: qty,
		Price:  order.FilledPrice,
	})
	return nil
}

func (t *liveTrader) Buy(ctx context.Context, symbol string, amount float64) error {
	return t.submit(ctx, symbol, exchange.SideBuy, amount)
}

func (t *liveTrader) Sell(ctx context.Context, symbol string, amount float64) error {
	return t.submit(ctx, symbol, exchange.SideSell, amount)
}

func (t *liveTrader) Position(symbol string) float64 {
	return t.positions[symbol].InexactFloat64()
}

func (t *liveTrader) Cash() float64 {
	cash, err := t.broker.Cash(t.ctx)
	if err != nil {
		logger.Warnf("[engine] 查询可用资金失败，沿用上次值: %v", err)
		return t.lastCash
	}
	t.lastCash = cash
	return cash
}

func (t *liveTrader) Value() float64 {
	value, err := t.broker.Value(t.ctx)
	if err != nil {
		logger.Warnf("[engine] 查询账户估值失败，沿用上次值: %v", err)
		return t.lastValue
	}
	t.lastValue = value
	return value
}

func (t *liveTrader) Orders() []OrderRecord { return t.orders }
