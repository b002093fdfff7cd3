package binance

import (
	"context"
	"fmt"
	"strings"

	"bodhion/internal/config"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/pkg/maputil"
)

// broker 是按 broker_mapping 参数化的现货 broker 适配器。
// mapping 当前识别的键：
//
//	order_types: map，把内部订单类型映射为交易所订单类型（缺省恒等映射）
//	value_currencies: 列表，计入账户估值的币种（缺省只计结算币种）
type broker struct {
	store   *Store
	mapping config.BrokerMapping

	orderTypes map[exchange.OrderType]exchange.OrderType
	currencies []string
}

func newBroker(store *Store, mapping config.BrokerMapping) *broker {
	b := &broker{
		store:      store,
		mapping:    mapping,
		orderTypes: map[exchange.OrderType]exchange.OrderType{},
		currencies: []string{store.cfg.Currency},
	}
	if raw, ok := mapping["order_types"].(map[string]any); ok {
		for from, to := range raw {
			if s, ok := to.(string); ok {
				b.orderTypes[exchange.OrderType(strings.ToLower(from))] = exchange.OrderType(strings.ToLower(s))
			}
		}
	}
	if currencies := maputil.StringSlice(mapping, "value_currencies"); len(currencies) > 0 {
		upper := make([]string, 0, len(currencies))
		for _, c := range currencies {
			upper = append(upper, strings.ToUpper(c))
		}
		b.currencies = upper
	}
	return b
}

func (b *broker) Name() string { return "binance" }

// Cash 返回结算币种的可用余额。
func (b *broker) Cash(ctx context.Context) (float64, error) {
	account, err := b.store.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	for _, bal := range account.Balances {
		if strings.EqualFold(bal.Asset, b.store.cfg.Currency) {
			return parseFloat(bal.Free), nil
		}
	}
	return 0, nil
}

// Value 返回 value_currencies 中各币种 free+locked 的合计（以各自面值计）。
func (b *broker) Value(ctx context.Context) (float64, error) {
	account, err := b.store.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	wanted := make(map[string]bool, len(b.currencies))
	for _, c := range b.currencies {
		wanted[c] = true
	}
	total := 0.0
	for _, bal := range account.Balances {
		if wanted[strings.ToUpper(bal.Asset)] {
			total += parseFloat(bal.Free) + parseFloat(bal.Locked)
		}
	}
	return total, nil
}

// Submit 经 Store.CreateOrder 提交订单，保证拦截装饰器覆盖所有提交路径。
func (b *broker) Submit(ctx context.Context, req exchange.OrderRequest) (*exchange.Order, error) {
	if mapped, ok := b.orderTypes[req.Type]; ok {
		req.Type = mapped
	}
	return b.store.CreateOrder(ctx, req)
}
