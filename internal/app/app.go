package app

import (
	"context"
	"fmt"
	"time"

	"bodhion/internal/bot"
	"bodhion/internal/config"
	"bodhion/internal/logger"
	"bodhion/internal/store/runs"
)

// App 是装配完成的应用：一次 CLI 调用对应一次执行会话。
type App struct {
	cfg     *config.Config
	bot     *bot.Bot
	runs    *runs.Store
	journal *runs.Journal
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Backtest 执行一次回测会话。
func (a *App) Backtest(ctx context.Context, strategyName string, start, end time.Time) error {
	if a.Summary != nil {
		a.Summary.Print()
	}
	result, err := a.bot.Backtest(ctx, strategyName, start, end)
	if err != nil {
		return err
	}
	logger.Infof("[app] 回测收益 %.2f%%（%d 笔成交）", result.ReturnPct, len(result.Orders))
	return nil
}

// Optimize 执行一次参数优化会话。
func (a *App) Optimize(ctx context.Context, strategyName string, start, end time.Time) error {
	if a.Summary != nil {
		a.Summary.Print()
	}
	result, err := a.bot.Optimize(ctx, strategyName, start, end)
	if err != nil {
		return err
	}
	for _, inst := range result.Instances {
		logger.Infof("[app] 参数 %v → 期末 %.2f（%.2f%%）", inst.Params, inst.FinalValue, inst.ReturnPct)
	}
	return nil
}

// Run 启动实盘会话，直到 ctx 取消。
func (a *App) Run(ctx context.Context, strategyName string) error {
	if a.Summary != nil {
		a.Summary.Print()
	}
	return a.bot.Run(ctx, strategyName)
}

// Close 释放会话级资源。
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.journal != nil {
		a.journal.Close()
	}
	if a.runs != nil {
		return a.runs.Close()
	}
	return nil
}
