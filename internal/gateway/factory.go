package gateway

import (
	"fmt"
	"strings"

	"bodhion/internal/config"
	"bodhion/internal/gateway/binance"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/intercept"
)

// NewStore 按配置构建交易所 Store。校验先于任何副作用；
// hook 非空时用拦截装饰器包裹，让所有下单路径都先过钩子。
func NewStore(cfg *config.Config, hook intercept.Hook) (exchange.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := config.Require(cfg.Exchange.Name, "exchange.name"); err != nil {
		return nil, err
	}
	if err := config.Require(cfg.Exchange.Config, "exchange.config"); err != nil {
		return nil, err
	}
	if err := config.Require(cfg.Exchange.Currency, "exchange.currency"); err != nil {
		return nil, err
	}

	var store exchange.Store
	switch strings.ToLower(cfg.Exchange.Name) {
	case "binance":
		s, err := binance.New(binance.Config{
			APIKey:    cfg.Exchange.Config["api_key"],
			APISecret: cfg.Exchange.Config["api_secret"],
			Sandbox:   cfg.Exchange.IsSandbox(),
			Currency:  cfg.Exchange.Currency,
			Retries:   cfg.Exchange.Retries,
			Debug:     cfg.Debug,
		})
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", cfg.Exchange.Name)
	}

	return intercept.WrapStore(store, hook), nil
}
