package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bodhion/internal/gateway/exchange"
	"bodhion/internal/logger"
	"bodhion/internal/market"
	"bodhion/internal/strategy"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BarEngine 是按已收盘 K 线驱动的执行引擎。
// 回测/优化先把历史行情抽干到缓冲，再按时间合并回放；
// 实盘每路行情一个 goroutine 扇入同一事件通道。
type BarEngine struct {
	strategies []strategy.Strategy
	optFactory strategy.Factory
	optGrid    []map[string]any

	liveBroker exchange.Broker

	simCash       decimal.Decimal
	simShort      bool
	simCommission decimal.Decimal
	simConfigured bool

	feeds   []exchange.Feed
	buffers [][]barEvent
	result  *Result
}

type barEvent struct {
	feedIdx int
	candle  market.Candle
}

func NewBarEngine() *BarEngine {
	return &BarEngine{}
}

func (e *BarEngine) AddStrategy(s strategy.Strategy) {
	e.strategies = append(e.strategies, s)
}

func (e *BarEngine) OptimizeStrategy(factory strategy.Factory, grid []map[string]any) {
	e.optFactory = factory
	e.optGrid = grid
}

func (e *BarEngine) SetBroker(b exchange.Broker) {
	e.liveBroker = b
}

func (e *BarEngine) ConfigureSimBroker(cash decimal.Decimal, short bool, commission decimal.Decimal) {
	e.simCash = cash
	e.simShort = short
	e.simCommission = commission
	e.simConfigured = true
}

func (e *BarEngine) AddData(f exchange.Feed) {
	e.feeds = append(e.feeds, f)
}

func (e *BarEngine) Run(ctx context.Context) (*Result, error) {
	if len(e.feeds) == 0 {
		return nil, errors.New("engine: no data feeds attached")
	}
	if e.liveBroker != nil {
		return e.runLive(ctx)
	}
	if !e.simConfigured {
		return nil, errors.New("engine: sim broker not configured")
	}
	if err := e.drainFeeds(ctx); err != nil {
		return nil, err
	}
	if e.optFactory != nil {
		return e.runOptimize(ctx)
	}
	return e.runBacktest(ctx)
}

// drainFeeds 把每路历史行情读空并按收盘时间合并。
// 同一时间戳保持行情声明顺序，保证多路行情下结果可复现。
func (e *BarEngine) drainFeeds(ctx context.Context) error {
	e.buffers = make([][]barEvent, len(e.feeds))
	for i, feed := range e.feeds {
		for {
			candle, ok, err := feed.Next(ctx)
			if err != nil {
				return fmt.Errorf("engine: feed %s: %w", feed.Name(), err)
			}
			if !ok {
				break
			}
			e.buffers[i] = append(e.buffers[i], barEvent{feedIdx: i, candle: candle})
		}
		logger.Debugf("[engine] 行情 %s 载入 %d 根 K 线", e.feeds[i].Name(), len(e.buffers[i]))
	}
	return nil
}

func (e *BarEngine) mergedEvents() []barEvent {
	var merged []barEvent
	for _, buf := range e.buffers {
		merged = append(merged, buf...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		if merged[a].candle.CloseTime != merged[b].candle.CloseTime {
			return merged[a].candle.CloseTime < merged[b].candle.CloseTime
		}
		return merged[a].feedIdx < merged[b].feedIdx
	})
	return merged
}

// replay 按事件序列驱动一组策略实例与一个模拟 broker。
func (e *BarEngine) replay(ctx context.Context, events []barEvent, strategies []strategy.Strategy, broker *SimBroker) error {
	closes := make([][]float64, len(e.feeds))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		feed := e.feeds[ev.feedIdx]
		closes[ev.feedIdx] = append(closes[ev.feedIdx], ev.candle.Close)
		broker.Mark(feed.Name(), feed.Dataname(), decimal.NewFromFloat(ev.candle.Close), ev.candle.ClosedAt())
		bar := &strategy.Bar{
			Feed:   feed.Name(),
			Symbol: feed.Dataname(),
			Candle: ev.candle,
			Closes: closes[ev.feedIdx],
		}
		for _, s := range strategies {
			if err := s.OnBar(ctx, bar, broker); err != nil {
				return fmt.Errorf("engine: strategy %s: %w", s.Name(), err)
			}
		}
		broker.Snapshot(ev.candle.CloseTime)
	}
	return nil
}

func (e *BarEngine) runBacktest(ctx context.Context) (*Result, error) {
	broker := NewSimBroker(e.simCash, e.simShort, e.simCommission)
	events := e.mergedEvents()
	if err := e.replay(ctx, events, e.strategies, broker); err != nil {
		return nil, err
	}
	start := e.simCash.InexactFloat64()
	final := broker.Value()
	e.result = &Result{
		StartCash:  start,
		FinalValue: final,
		ReturnPct:  returnPct(start, final),
		Orders:     broker.Orders(),
		Equity:     broker.EquityCurve(),
		FinishedAt: time.Now().UTC(),
	}
	logger.Infof("[engine] 回测完成: 初始 %.2f 期末 %.2f 收益 %.2f%% 成交 %d 笔",
		start, final, e.result.ReturnPct, len(e.result.Orders))
	return e.result, nil
}

// runOptimize 对参数网格逐组回放，每组一个全新策略实例与模拟 broker。
func (e *BarEngine) runOptimize(ctx context.Context) (*Result, error) {
	if len(e.optGrid) == 0 {
		return nil, errors.New("engine: empty parameter grid")
	}
	events := e.mergedEvents()
	start := e.simCash.InexactFloat64()
	result := &Result{StartCash: start}
	for _, params := range e.optGrid {
		inst, err := e.optFactory(params)
		if err != nil {
			return nil, fmt.Errorf("engine: build instance %v: %w", params, err)
		}
		broker := NewSimBroker(e.simCash, e.simShort, e.simCommission)
		if err := e.replay(ctx, events, []strategy.Strategy{inst}, broker); err != nil {
			return nil, err
		}
		final := broker.Value()
		result.Instances = append(result.Instances, InstanceResult{
			Params:     inst.Params(),
			FinalValue: final,
			ReturnPct:  returnPct(start, final),
			Orders:     len(broker.Orders()),
		})
		logger.Infof("[engine] 参数 %v 期末 %.2f 收益 %.2f%%", inst.Params(), final, returnPct(start, final))
	}
	// 以最优一组作为汇总结果。
	best := result.Instances[0]
	for _, inst := range result.Instances[1:] {
		if inst.FinalValue > best.FinalValue {
			best = inst
		}
	}
	result.FinalValue = best.FinalValue
	result.ReturnPct = best.ReturnPct
	result.FinishedAt = time.Now().UTC()
	e.result = result
	return result, nil
}

// runLive 为每路行情起一个 goroutine 扇入事件通道，单消费者驱动策略，
// 保证策略回调串行执行。ctx 取消视为正常收盘。
func (e *BarEngine) runLive(ctx context.Context) (*Result, error) {
	trader := newLiveTrader(ctx, e.liveBroker)
	events := make(chan barEvent, 64)
	g, gctx := errgroup.WithContext(ctx)

	for i, feed := range e.feeds {
		i, feed := i, feed
		g.Go(func() error {
			for {
				candle, ok, err := feed.Next(gctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("engine: feed %s: %w", feed.Name(), err)
				}
				if !ok {
					return nil
				}
				select {
				case events <- barEvent{feedIdx: i, candle: candle}:
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	g.Go(func() error {
		closes := make([][]float64, len(e.feeds))
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				feed := e.feeds[ev.feedIdx]
				closes[ev.feedIdx] = append(closes[ev.feedIdx], ev.candle.Close)
				bar := &strategy.Bar{
					Feed:   feed.Name(),
					Symbol: feed.Dataname(),
					Candle: ev.candle,
					Closes: closes[ev.feedIdx],
				}
				for _, s := range e.strategies {
					if err := s.OnBar(gctx, bar, trader); err != nil {
						logger.Errorf("[engine] 策略 %s 处理 %s 失败: %v", s.Name(), feed.Name(), err)
					}
				}
			}
		}
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	e.result = &Result{
		Orders:     trader.Orders(),
		FinishedAt: time.Now().UTC(),
	}
	return e.result, nil
}

func returnPct(start, final float64) float64 {
	if start == 0 {
		return 0
	}
	return (final - start) / start * 100
}
