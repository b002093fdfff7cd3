package binance

import (
	"context"
	"fmt"
	"sync"

	"bodhion/internal/gateway/exchange"
	"bodhion/internal/logger"
	"bodhion/internal/market"
	symbolpkg "bodhion/internal/pkg/symbol"

	sdk "github.com/adshao/go-binance/v2"
)

// historicalFeed 按 [FromDate, ToDate] 分页拉取 K 线，拉完即止。
type historicalFeed struct {
	store    *Store
	req      exchange.FeedRequest
	interval string

	once   sync.Once
	buf    []market.Candle
	pos    int
	srcErr error
}

func newHistoricalFeed(store *Store, req exchange.FeedRequest, interval string) *historicalFeed {
	return &historicalFeed{store: store, req: req, interval: interval}
}

func (f *historicalFeed) Name() string     { return f.req.Name }
func (f *historicalFeed) Dataname() string { return f.req.Dataname }

func (f *historicalFeed) Next(ctx context.Context) (market.Candle, bool, error) {
	f.once.Do(func() { f.srcErr = f.load(ctx) })
	if f.srcErr != nil {
		return market.Candle{}, false, f.srcErr
	}
	if f.pos >= len(f.buf) {
		return market.Candle{}, false, nil
	}
	c := f.buf[f.pos]
	f.pos++
	return c, true, nil
}

func (f *historicalFeed) load(ctx context.Context) error {
	cleanSymbol := symbolpkg.Binance.ToExchange(f.req.Dataname)
	startMs := f.req.FromDate.UnixMilli()
	endMs := f.req.ToDate.UnixMilli()
	if endMs <= startMs {
		return fmt.Errorf("feed %s: end %d must be after start %d", f.req.Dataname, endMs, startMs)
	}
	var out []market.Candle
	cursor := startMs
	for cursor < endMs {
		kls, err := f.store.client.NewKlinesService().
			Symbol(cleanSymbol).
			Interval(f.interval).
			StartTime(cursor).
			EndTime(endMs).
			Limit(maxKlineBatch).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("fetch klines %s %s: %w", cleanSymbol, f.interval, err)
		}
		if len(kls) == 0 {
			break
		}
		for _, kl := range kls {
			if kl == nil {
				continue
			}
			out = append(out, klineToCandle(kl))
		}
		last := kls[len(kls)-1].CloseTime
		if last <= cursor {
			break
		}
		cursor = last + 1
	}
	if f.req.DropNewest {
		out = market.DropLast(out)
	}
	if f.req.Debug {
		logger.Debugf("[feed] %s 历史区间加载完成，%d 根", f.req.Dataname, len(out))
	}
	f.buf = out
	return nil
}

// liveFeed 先按回看起点回填历史，再经 websocket 推送已收盘 K 线，开放式运行。
type liveFeed struct {
	store    *Store
	req      exchange.FeedRequest
	interval string

	once    sync.Once
	buf     []market.Candle
	pos     int
	updates chan market.Candle
	stopC   chan struct{}
	srcErr  error
}

func newLiveFeed(store *Store, req exchange.FeedRequest, interval string) *liveFeed {
	return &liveFeed{
		store:    store,
		req:      req,
		interval: interval,
		updates:  make(chan market.Candle, 64),
	}
}

func (f *liveFeed) Name() string     { return f.req.Name }
func (f *liveFeed) Dataname() string { return f.req.Dataname }

func (f *liveFeed) Next(ctx context.Context) (market.Candle, bool, error) {
	f.once.Do(func() { f.srcErr = f.start(ctx) })
	if f.srcErr != nil {
		return market.Candle{}, false, f.srcErr
	}
	if f.pos < len(f.buf) {
		c := f.buf[f.pos]
		f.pos++
		return c, true, nil
	}
	select {
	case <-ctx.Done():
		f.stop()
		return market.Candle{}, false, ctx.Err()
	case c, ok := <-f.updates:
		if !ok {
			return market.Candle{}, false, nil
		}
		return c, true, nil
	}
}

func (f *liveFeed) start(ctx context.Context) error {
	cleanSymbol := symbolpkg.Binance.ToExchange(f.req.Dataname)

	// 回填：起点 = now - lookback，由 provisioner 计算后放进 FromDate。
	kls, err := f.store.client.NewKlinesService().
		Symbol(cleanSymbol).
		Interval(f.interval).
		StartTime(f.req.FromDate.UnixMilli()).
		Limit(f.req.OHLCVLimit).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("backfill klines %s %s: %w", cleanSymbol, f.interval, err)
	}
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		f.buf = append(f.buf, klineToCandle(kl))
	}
	if f.req.DropNewest {
		f.buf = market.DropLast(f.buf)
	}
	logger.Infof("[feed] %s 回填 %d 根，订阅 %s 实时流", f.req.Dataname, len(f.buf), f.interval)

	handler := func(event *sdk.WsKlineEvent) {
		if event == nil || !event.Kline.IsFinal {
			return
		}
		k := event.Kline
		c := market.Candle{
			OpenTime:  k.StartTime,
			CloseTime: k.EndTime,
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
			Trades:    k.TradeNum,
		}
		select {
		case f.updates <- c:
		default:
			logger.Warnf("[feed] %s 实时缓冲已满，丢弃一根 K 线", f.req.Dataname)
		}
	}
	errHandler := func(err error) {
		logger.Errorf("[feed] %s websocket 错误：%v", f.req.Dataname, err)
	}
	_, stopC, err := sdk.WsKlineServe(cleanSymbol, f.interval, handler, errHandler)
	if err != nil {
		return fmt.Errorf("subscribe kline stream %s %s: %w", cleanSymbol, f.interval, err)
	}
	f.stopC = stopC
	return nil
}

func (f *liveFeed) stop() {
	if f.stopC != nil {
		close(f.stopC)
		f.stopC = nil
	}
}

func klineToCandle(kl *sdk.Kline) market.Candle {
	return market.Candle{
		OpenTime:  kl.OpenTime,
		CloseTime: kl.CloseTime,
		Open:      parseFloat(kl.Open),
		High:      parseFloat(kl.High),
		Low:       parseFloat(kl.Low),
		Close:     parseFloat(kl.Close),
		Volume:    parseFloat(kl.Volume),
		Trades:    kl.TradeNum,
	}
}
