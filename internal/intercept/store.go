package intercept

import (
	"context"

	"bodhion/internal/config"
	"bodhion/internal/gateway/exchange"
)

// WrapStore 用拦截钩子装饰 Store：每次 CreateOrder 先过 hook，再进入真实提交。
// hook 为 nil 时原样返回（直连）。
func WrapStore(inner exchange.Store, hook Hook) exchange.Store {
	if hook == nil {
		return inner
	}
	return &interceptedStore{inner: inner, hook: hook}
}

type interceptedStore struct {
	inner exchange.Store
	hook  Hook
}

func (s *interceptedStore) ExchangeName() string { return s.inner.ExchangeName() }

func (s *interceptedStore) GetData(ctx context.Context, req exchange.FeedRequest) (exchange.Feed, error) {
	return s.inner.GetData(ctx, req)
}

// GetBroker 返回的 broker 的提交路径同样经过装饰后的 CreateOrder。
func (s *interceptedStore) GetBroker(ctx context.Context, mapping config.BrokerMapping) (exchange.Broker, error) {
	inner, err := s.inner.GetBroker(ctx, mapping)
	if err != nil {
		return nil, err
	}
	return &interceptedBroker{inner: inner, store: s}, nil
}

func (s *interceptedStore) CreateOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.Order, error) {
	if err := s.hook(ctx, NewOrderMessage(req)); err != nil {
		return nil, err
	}
	return s.inner.CreateOrder(ctx, req)
}

type interceptedBroker struct {
	inner exchange.Broker
	store *interceptedStore
}

func (b *interceptedBroker) Name() string { return b.inner.Name() }

func (b *interceptedBroker) Cash(ctx context.Context) (float64, error) {
	return b.inner.Cash(ctx)
}

func (b *interceptedBroker) Value(ctx context.Context) (float64, error) {
	return b.inner.Value(ctx)
}

func (b *interceptedBroker) Submit(ctx context.Context, req exchange.OrderRequest) (*exchange.Order, error) {
	return b.store.CreateOrder(ctx, req)
}

var _ exchange.Store = (*interceptedStore)(nil)
