package exchange

import (
	"context"

	"bodhion/internal/config"
	"bodhion/internal/market"
)

// Store 是交易所连接抽象：行情、broker 适配与订单提交都从这里出。
// 订单拦截以装饰器的方式包裹 Store，不按模式复制代码路径。
type Store interface {
	ExchangeName() string

	// GetBroker 按 broker_mapping 策略返回 broker 适配器（仅实盘 Run 模式使用）。
	GetBroker(ctx context.Context, mapping config.BrokerMapping) (Broker, error)

	// GetData 按请求构建一路行情（历史区间或实时滚动）。
	GetData(ctx context.Context, req FeedRequest) (Feed, error)

	// CreateOrder 向交易所提交订单。
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// Broker 是下单/资金查询适配器。实盘 broker 的 Submit 必须经由 Store.CreateOrder，
// 这样拦截装饰器才能覆盖所有提交路径。
type Broker interface {
	Name() string

	Cash(ctx context.Context) (float64, error)

	Value(ctx context.Context) (float64, error)

	Submit(ctx context.Context, req OrderRequest) (*Order, error)
}

// Feed 是一路行情流。历史行情在数据耗尽时返回 ok=false；
// 实时行情在 ctx 取消前持续产出。
type Feed interface {
	Name() string

	Dataname() string

	Next(ctx context.Context) (market.Candle, bool, error)
}
