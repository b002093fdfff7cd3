package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SimBroker 是回测/优化用的模拟 broker：按收盘价立即成交，
// 计提固定费率，维护持仓与资金曲线。不做撮合（非目标）。
type SimBroker struct {
	cash       decimal.Decimal
	short      bool
	commission decimal.Decimal

	positions map[string]decimal.Decimal
	lastPrice map[string]decimal.Decimal
	symbols   map[string]string // symbol -> feed label
	orders    []OrderRecord
	equity    []EquityPoint
	now       time.Time
}

func NewSimBroker(cash decimal.Decimal, short bool, commission decimal.Decimal) *SimBroker {
	return &SimBroker{
		cash:       cash,
		short:      short,
		commission: commission,
		positions:  map[string]decimal.Decimal{},
		lastPrice:  map[string]decimal.Decimal{},
		symbols:    map[string]string{},
	}
}

// Mark 推进某个符号的最新收盘价与当前时间。
func (b *SimBroker) Mark(feed, symbol string, price decimal.Decimal, ts time.Time) {
	b.lastPrice[symbol] = price
	b.symbols[symbol] = feed
	b.now = ts
}

// Snapshot 采样一次资金曲线。
func (b *SimBroker) Snapshot(ts int64) {
	b.equity = append(b.equity, EquityPoint{TS: ts, Equity: b.valueDecimal().InexactFloat64()})
}

func (b *SimBroker) valueDecimal() decimal.Decimal {
	total := b.cash
	for symbol, pos := range b.positions {
		if price, ok := b.lastPrice[symbol]; ok {
			total = total.Add(pos.Mul(price))
		}
	}
	return total
}

func (b *SimBroker) fill(symbol string, amount decimal.Decimal, sell bool) error {
	price, ok := b.lastPrice[symbol]
	if !ok || price.Sign() <= 0 {
		return fmt.Errorf("no price marked for %s", symbol)
	}
	pos := b.positions[symbol]
	if sell && !b.short {
		// 做空未开启：卖出数量被钳制到当前持仓。
		if amount.GreaterThan(pos) {
			amount = pos
		}
		if amount.Sign() <= 0 {
			return nil
		}
	}
	notional := amount.Mul(price)
	fee := notional.Mul(b.commission)
	side := "buy"
	if sell {
		side = "sell"
		b.cash = b.cash.Add(notional).Sub(fee)
		b.positions[symbol] = pos.Sub(amount)
	} else {
		b.cash = b.cash.Sub(notional).Sub(fee)
		b.positions[symbol] = pos.Add(amount)
	}
	b.orders = append(b.orders, OrderRecord{
		Time:   b.now,
		Feed:   b.symbols[symbol],
		Symbol: symbol,
		Side:   side,
		Amount: amount,
		Price:  price,
		Fee:    fee,
	})
	return nil
}

// Buy 实现 strategy.Trader。
func (b *SimBroker) Buy(_ context.Context, symbol string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("buy amount must be > 0")
	}
	return b.fill(symbol, decimal.NewFromFloat(amount), false)
}

// Sell 实现 strategy.Trader。
func (b *SimBroker) Sell(_ context.Context, symbol string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("sell amount must be > 0")
	}
	return b.fill(symbol, decimal.NewFromFloat(amount), true)
}

func (b *SimBroker) Position(symbol string) float64 {
	return b.positions[symbol].InexactFloat64()
}

func (b *SimBroker) Cash() float64 {
	return b.cash.InexactFloat64()
}

func (b *SimBroker) Value() float64 {
	return b.valueDecimal().InexactFloat64()
}

func (b *SimBroker) Orders() []OrderRecord { return b.orders }

func (b *SimBroker) EquityCurve() []EquityPoint { return b.equity }
