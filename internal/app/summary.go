package app

import (
	"fmt"
	"strings"

	"bodhion/internal/config"
	"bodhion/internal/intercept"

	"gopkg.in/yaml.v3"
)

// StartupSummary 在会话启动时打印生效配置（YAML，密钥已脱敏）。
type StartupSummary struct {
	cfg *config.Config
}

func newStartupSummary(cfg *config.Config) *StartupSummary {
	return &StartupSummary{cfg: cfg}
}

func (s *StartupSummary) Print() {
	if s == nil || s.cfg == nil {
		return
	}
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("交易所: %s (sandbox=%v)\n", s.cfg.Exchange.Name, s.cfg.Exchange.IsSandbox())
	fmt.Printf("行情路数: %d\n", len(s.cfg.DataFeeds))
	fmt.Printf("订单拦截: %s\n", intercept.Resolve(s.cfg.OrderInterceptor))

	out, err := yaml.Marshal(redactedView(s.cfg))
	if err != nil {
		fmt.Printf("(配置序列化失败: %v)\n", err)
	} else {
		fmt.Println(strings.Repeat("-", 80))
		fmt.Print(string(out))
	}
	fmt.Println(strings.Repeat("=", 80))
}

// redactedView 返回适合打印的配置视图，交易所密钥与 MQ 密码一律脱敏。
func redactedView(cfg *config.Config) map[string]any {
	exchangeCfg := map[string]string{}
	for key := range cfg.Exchange.Config {
		exchangeCfg[key] = "***"
	}
	view := map[string]any{
		"debug": cfg.Debug,
		"exchange": map[string]any{
			"name":     cfg.Exchange.Name,
			"config":   exchangeCfg,
			"sandbox":  cfg.Exchange.IsSandbox(),
			"currency": cfg.Exchange.Currency,
			"retries":  cfg.Exchange.Retries,
		},
		"datafeeds": cfg.DataFeeds,
		"backtest": map[string]any{
			"cash":       cfg.Backtest.Cash,
			"short":      cfg.Backtest.AllowShort(),
			"commission": cfg.Backtest.Commission,
		},
		"report": cfg.Report,
		"runs":   cfg.Runs,
	}
	if ic := cfg.OrderInterceptor; ic != nil {
		interceptor := map[string]any{"exchange": ic.Exchange}
		if ic.Broker != nil {
			interceptor["broker"] = map[string]any{
				"host":     ic.Broker.Host,
				"port":     ic.Broker.Port,
				"username": ic.Broker.Username,
				"password": "***",
				"vhost":    ic.Broker.VHost,
			}
		}
		if ic.Chatbot != nil {
			interceptor["chatbot"] = map[string]any{
				"command": ic.Chatbot.Command,
				"args":    ic.Chatbot.Args,
			}
		}
		view["order_interceptor"] = interceptor
	}
	return view
}
