package intercept

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bodhion/internal/config"
	"bodhion/internal/gateway/exchange"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeStore struct {
	orders []exchange.OrderRequest
}

func (s *fakeStore) ExchangeName() string { return "fake" }

func (s *fakeStore) GetBroker(context.Context, config.BrokerMapping) (exchange.Broker, error) {
	return &fakeBroker{store: s}, nil
}

func (s *fakeStore) GetData(context.Context, exchange.FeedRequest) (exchange.Feed, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) CreateOrder(_ context.Context, req exchange.OrderRequest) (*exchange.Order, error) {
	s.orders = append(s.orders, req)
	return &exchange.Order{ID: "1", Request: req, Status: exchange.OrderStatusSubmitted}, nil
}

type fakeBroker struct {
	store *fakeStore
}

func (b *fakeBroker) Name() string                            { return "fake" }
func (b *fakeBroker) Cash(context.Context) (float64, error)   { return 0, nil }
func (b *fakeBroker) Value(context.Context) (float64, error)  { return 0, nil }
func (b *fakeBroker) Submit(ctx context.Context, req exchange.OrderRequest) (*exchange.Order, error) {
	return b.store.CreateOrder(ctx, req)
}

func marketBuy(symbol string, amount int64) exchange.OrderRequest {
	return exchange.OrderRequest{
		Symbol: symbol,
		Type:   exchange.OrderTypeMarket,
		Side:   exchange.SideBuy,
		Amount: decimal.NewFromInt(amount),
		Params: map[string]any{"tag": "test"},
	}
}

func TestResolveTriState(t *testing.T) {
	assert.Equal(t, StateDisabled, Resolve(nil))

	broker := &config.MQBrokerConfig{Host: "localhost", Port: 5672}
	chatbot := &config.ChatbotConfig{Command: "agent"}

	assert.Equal(t, StateMisconfigured, Resolve(&config.InterceptorConfig{Broker: broker}))
	assert.Equal(t, StateMisconfigured, Resolve(&config.InterceptorConfig{Chatbot: chatbot}))
	assert.Equal(t, StateMisconfigured, Resolve(&config.InterceptorConfig{}))
	assert.Equal(t, StateEnabled, Resolve(&config.InterceptorConfig{Broker: broker, Chatbot: chatbot}))
}

func TestInterceptedStorePublishesExactlyOncePerOrder(t *testing.T) {
	pub := &fakePublisher{}
	ic, err := New(pub, nil)
	require.NoError(t, err)

	inner := &fakeStore{}
	store := WrapStore(inner, ic.Hook())

	req := marketBuy("BTC/USDT", 2)
	_, err = store.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, pub.payloads, 1, "exactly one message per order")
	require.Len(t, inner.orders, 1, "real submission still proceeds")

	var msg OrderMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, "BTC/USDT", msg.Symbol)
	assert.Equal(t, "market", msg.OrderType)
	assert.Equal(t, "buy", msg.Side)
	assert.True(t, msg.Amount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "test", msg.Param["tag"])
}

func TestInterceptedBrokerRoutesThroughDecoratedStore(t *testing.T) {
	pub := &fakePublisher{}
	ic, err := New(pub, nil)
	require.NoError(t, err)

	inner := &fakeStore{}
	store := WrapStore(inner, ic.Hook())
	broker, err := store.GetBroker(context.Background(), config.BrokerMapping{})
	require.NoError(t, err)

	_, err = broker.Submit(context.Background(), marketBuy("ETH/USDT", 1))
	require.NoError(t, err)
	assert.Len(t, pub.payloads, 1, "broker submit must pass through the interceptor")
	assert.Len(t, inner.orders, 1)
}

func TestPublishFailureDoesNotBlockSubmission(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	ic, err := New(pub, nil)
	require.NoError(t, err)

	inner := &fakeStore{}
	store := WrapStore(inner, ic.Hook())
	_, err = store.CreateOrder(context.Background(), marketBuy("BTC/USDT", 1))
	require.NoError(t, err, "fire-and-forget publish must not fail the order")
	assert.Len(t, inner.orders, 1)
}

func TestWrapStoreNilHookIsDirect(t *testing.T) {
	inner := &fakeStore{}
	store := WrapStore(inner, nil)
	assert.Same(t, exchange.Store(inner), store)

	_, err := store.CreateOrder(context.Background(), marketBuy("BTC/USDT", 1))
	require.NoError(t, err)
	assert.Len(t, inner.orders, 1)
}

