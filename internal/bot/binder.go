package bot

import (
	"context"

	"bodhion/internal/config"
	"bodhion/internal/engine"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/logger"
)

// bindBroker 把真实 broker 绑定到引擎（仅 Run 模式）。
// broker_mapping 必填：缺失时在任何交易所调用之前失败。
func bindBroker(ctx context.Context, cfg *config.Config, store exchange.Store, eng engine.Engine, sess *Session) error {
	if err := config.Require(cfg.BrokerMapping, "broker_mapping"); err != nil {
		return err
	}
	broker, err := store.GetBroker(ctx, cfg.BrokerMapping)
	if err != nil {
		return err
	}
	eng.SetBroker(broker)
	sess.Broker = broker
	logger.Infof("[bot] broker 已绑定 %s", broker.Name())
	return nil
}
