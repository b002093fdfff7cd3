package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bodhion/internal/config"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/logger"
	"bodhion/internal/pkg/circuit"
	symbolpkg "bodhion/internal/pkg/symbol"
	"bodhion/internal/timeframe"

	sdk "github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxKlineBatch = 1000

// Store 基于 go-binance SDK 实现 exchange.Store（现货）。
type Store struct {
	cfg     Config
	client  *sdk.Client
	breaker *circuit.Breaker
}

func New(cfg Config) (*Store, error) {
	final := cfg.withDefaults()
	if final.Currency == "" {
		return nil, fmt.Errorf("settlement currency is required")
	}
	client := sdk.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	if final.Debug {
		client.Debug = true
	}
	return &Store{
		cfg:     final,
		client:  client,
		breaker: circuit.NewBreaker("binance-orders", final.Retries, 30*time.Second),
	}, nil
}

func (s *Store) ExchangeName() string { return "binance" }

// GetBroker 返回按 broker_mapping 参数化的现货 broker 适配器。
func (s *Store) GetBroker(ctx context.Context, mapping config.BrokerMapping) (exchange.Broker, error) {
	if mapping == nil {
		return nil, fmt.Errorf("broker_mapping is required")
	}
	return newBroker(s, mapping), nil
}

// GetData 构建一路行情：历史区间拉取或回看起点 + websocket 实时流。
func (s *Store) GetData(ctx context.Context, req exchange.FeedRequest) (exchange.Feed, error) {
	if req.Dataname == "" {
		return nil, fmt.Errorf("feed dataname is required")
	}
	interval, err := timeframe.SourceInterval(req.Timeframe, req.Compression)
	if err != nil {
		return nil, err
	}
	if req.Historical {
		if req.ToDate == nil {
			return nil, fmt.Errorf("historical feed %s requires an end time", req.Dataname)
		}
		return newHistoricalFeed(s, req, interval), nil
	}
	return newLiveFeed(s, req, interval), nil
}

// CreateOrder 提交现货订单，带重试预算。
func (s *Store) CreateOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.Order, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("order symbol is required")
	}
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("order amount must be > 0")
	}
	if !s.breaker.Allow() {
		return nil, fmt.Errorf("order path circuit open, rejecting %s %s", req.Side, req.Symbol)
	}
	side := sdk.SideTypeBuy
	if req.Side == exchange.SideSell {
		side = sdk.SideTypeSell
	}
	cleanSymbol := symbolpkg.Binance.ToExchange(req.Symbol)

	var lastErr error
	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		svc := s.client.NewCreateOrderService().
			Symbol(cleanSymbol).
			Side(side).
			Quantity(req.Amount.String())
		switch req.Type {
		case exchange.OrderTypeLimit:
			svc = svc.Type(sdk.OrderTypeLimit).
				TimeInForce(sdk.TimeInForceTypeGTC).
				Price(req.Price.String())
		default:
			svc = svc.Type(sdk.OrderTypeMarket)
		}
		resp, err := svc.Do(ctx)
		if err != nil {
			lastErr = err
			logger.Warnf("[store] 下单失败（第 %d/%d 次）：%v", attempt+1, s.cfg.Retries, err)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}
		order := &exchange.Order{
			ID:          fmt.Sprintf("%d", resp.OrderID),
			Request:     req,
			Status:      exchange.OrderStatusSubmitted,
			SubmittedAt: time.UnixMilli(resp.TransactTime).UTC(),
		}
		if resp.Status == sdk.OrderStatusTypeFilled {
			order.Status = exchange.OrderStatusFilled
			if price, perr := decimal.NewFromString(resp.Price); perr == nil && price.Sign() > 0 {
				order.FilledPrice = price
			}
		}
		if order.ID == "0" {
			order.ID = uuid.NewString()
		}
		s.breaker.RecordSuccess()
		return order, nil
	}
	s.breaker.RecordFailure()
	return nil, fmt.Errorf("create order %s %s %s failed after %d retries: %w",
		req.Side, req.Symbol, req.Amount, s.cfg.Retries, lastErr)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
