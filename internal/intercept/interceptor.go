package intercept

import (
	"context"
	"fmt"

	"bodhion/internal/config"
	"bodhion/internal/logger"
)

// State 是拦截配置解析结果的三态：
// 未配置（Disabled）、配置不完整（Misconfigured，按直连处理但要显式告警）、生效（Enabled）。
type State string

const (
	StateDisabled      State = "disabled"
	StateMisconfigured State = "misconfigured"
	StateEnabled       State = "enabled"
)

// Resolve 判定 order_interceptor 段的三态。broker 与 chatbot 二者齐备才算 Enabled。
func Resolve(cfg *config.InterceptorConfig) State {
	if cfg == nil {
		return StateDisabled
	}
	if cfg.Broker == nil || cfg.Chatbot == nil {
		return StateMisconfigured
	}
	return StateEnabled
}

// Hook 在每次订单提交前被调用。返回错误会阻止真实提交。
type Hook func(ctx context.Context, msg OrderMessage) error

// Publisher 是广播通道的最小写入口（由 approval.Channel 实现）。
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Journal 记录被拦截订单的审计行（可选）。
type Journal interface {
	RecordOrder(msg OrderMessage) error
}

// Interceptor 把每笔订单序列化后广播到 fanout exchange。
// 发布是 fire-and-forget 的审计广播：发布失败只记日志，不重试，也不阻止提交。
type Interceptor struct {
	publisher Publisher
	journal   Journal
}

func New(publisher Publisher, journal Journal) (*Interceptor, error) {
	if publisher == nil {
		return nil, fmt.Errorf("intercept publisher cannot be nil")
	}
	return &Interceptor{publisher: publisher, journal: journal}, nil
}

// Hook 返回装饰 Store 用的拦截钩子。
func (i *Interceptor) Hook() Hook {
	return func(ctx context.Context, msg OrderMessage) error {
		payload, err := msg.Encode()
		if err != nil {
			return fmt.Errorf("encode order message: %w", err)
		}
		if err := i.publisher.Publish(ctx, payload); err != nil {
			logger.Errorf("[intercept] 订单广播失败（不重试）：%v", err)
		} else {
			logger.Infof("[intercept] 已广播订单 %s %s %s", msg.Side, msg.Symbol, msg.Amount)
		}
		if i.journal != nil {
			if err := i.journal.RecordOrder(msg); err != nil {
				logger.Warnf("[intercept] 审计写入失败：%v", err)
			}
		}
		return nil
	}
}
