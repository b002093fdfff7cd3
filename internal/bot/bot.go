package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bodhion/internal/approval"
	"bodhion/internal/config"
	"bodhion/internal/engine"
	"bodhion/internal/gateway"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/intercept"
	"bodhion/internal/logger"
	"bodhion/internal/report"
	"bodhion/internal/store/runs"
	"bodhion/internal/strategy"
	livehttp "bodhion/internal/transport/http/live"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// EngineFactory 每个会话构造一个全新引擎。
type EngineFactory func() engine.Engine

// StoreFactory 构造交易所 Store；hook 非空时工厂负责套上拦截装饰器。
type StoreFactory func(cfg *config.Config, hook intercept.Hook) (exchange.Store, error)

// RunRecorder 持久化引擎运行结果。
type RunRecorder interface {
	SaveRun(ctx context.Context, sessionID, mode, strategyName string, startedAt time.Time, result *engine.Result) error
}

// AuditJournal 聚合订单广播与裁决的审计写入及只读查询。
type AuditJournal interface {
	intercept.Journal
	approval.DecisionJournal
	Recent(limit int) ([]runs.AuditRow, error)
}

// Bot 是执行模式编排器：三种模式共享一条装配管线
// （策略 → 行情计划 → store → broker/模拟 broker → 引擎），只在收尾分叉。
type Bot struct {
	cfg       *config.Config
	newEngine EngineFactory
	newStore  StoreFactory
	runs      RunRecorder
	journal   AuditJournal
}

// Options 注入可替换的协作方；零值采用生产默认。
type Options struct {
	Engine  EngineFactory
	Store   StoreFactory
	Runs    RunRecorder
	Journal AuditJournal
}

func New(cfg *config.Config, opts Options) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if opts.Engine == nil {
		opts.Engine = func() engine.Engine { return engine.NewBarEngine() }
	}
	if opts.Store == nil {
		opts.Store = gateway.NewStore
	}
	return &Bot{
		cfg:       cfg,
		newEngine: opts.Engine,
		newStore:  opts.Store,
		runs:      opts.Runs,
		journal:   opts.Journal,
	}, nil
}

// Backtest 在 [start, end] 历史区间上推演一个策略并生成报告。
func (b *Bot) Backtest(ctx context.Context, strategyName string, start, end time.Time) (*engine.Result, error) {
	sess := newSession(ModeBacktest, strategyName)
	logger.Infof("[bot] 回测会话 %s 策略=%s 区间=[%s, %s]",
		sess.ID, strategyName, start.Format(time.RFC3339), end.Format(time.RFC3339))

	eng := b.newEngine()
	strat, err := strategy.Create(strategyName, nil)
	if err != nil {
		return nil, err
	}
	eng.AddStrategy(strat)

	result, err := b.simulate(ctx, sess, eng, start, end)
	if err != nil {
		return nil, err
	}

	if _, err := report.Write(b.cfg.Report.Dir, sess.ID, eng.Plot); err != nil {
		logger.Warnf("[bot] 报告生成失败：%v", err)
	}
	b.persist(ctx, sess, result)
	logger.Infof("[bot] 回测会话 %s 结束", sess.ID)
	return result, nil
}

// Optimize 对注册的参数网格逐组推演同一历史区间。
func (b *Bot) Optimize(ctx context.Context, strategyName string, start, end time.Time) (*engine.Result, error) {
	sess := newSession(ModeOptimize, strategyName)
	logger.Infof("[bot] 优化会话 %s 策略=%s 区间=[%s, %s]",
		sess.ID, strategyName, start.Format(time.RFC3339), end.Format(time.RFC3339))

	eng := b.newEngine()
	desc, err := strategy.Lookup(strategyName)
	if err != nil {
		return nil, err
	}
	if len(desc.Grid) == 0 {
		return nil, fmt.Errorf("strategy %s has no optimize grid", strategyName)
	}
	eng.OptimizeStrategy(desc.Factory, desc.Grid)

	result, err := b.simulate(ctx, sess, eng, start, end)
	if err != nil {
		return nil, err
	}
	b.persist(ctx, sess, result)
	logger.Infof("[bot] 优化会话 %s 结束，共 %d 组参数", sess.ID, len(result.Instances))
	return result, nil
}

// simulate 是回测与优化共用的装配 + 推演路径。
// 校验（行情计划）先于一切副作用；模拟 broker 在行情挂载前配置一次。
func (b *Bot) simulate(ctx context.Context, sess *Session, eng engine.Engine, start, end time.Time) (*engine.Result, error) {
	plans, err := planFeeds(b.cfg, sess.Mode, start, end, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	store, err := b.newStore(b.cfg, nil)
	if err != nil {
		return nil, err
	}
	sess.Store = store

	eng.ConfigureSimBroker(
		decimal.NewFromFloat(b.cfg.Backtest.Cash),
		b.cfg.Backtest.AllowShort(),
		decimal.NewFromFloat(b.cfg.Backtest.Commission),
	)
	if err := provisionFeeds(ctx, plans, store, eng, sess); err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

// Run 启动实盘会话：拦截通道 → 审批代理 → store → broker 绑定 → 行情挂载，
// 然后引擎、裁决监听与状态服务在同一个 errgroup 下运行到 ctx 取消。
func (b *Bot) Run(ctx context.Context, strategyName string) error {
	sess := newSession(ModeRun, strategyName)
	logger.Infof("[bot] 实盘会话 %s 策略=%s", sess.ID, strategyName)

	eng := b.newEngine()
	strat, err := strategy.Create(strategyName, nil)
	if err != nil {
		return err
	}
	eng.AddStrategy(strat)

	plans, err := planFeeds(b.cfg, ModeRun, time.Time{}, time.Time{}, time.Now().UTC())
	if err != nil {
		return err
	}

	var (
		hook     intercept.Hook
		channel  *approval.Channel
		listener *approval.Listener
	)
	sess.InterceptState = intercept.Resolve(b.cfg.OrderInterceptor)
	switch sess.InterceptState {
	case intercept.StateMisconfigured:
		logger.Warnf("[bot] order_interceptor 配置不完整（broker 与 chatbot 需同时配置），订单按直连提交")
	case intercept.StateEnabled:
		ic := b.cfg.OrderInterceptor
		// 通道连不上对启用拦截的会话是致命错误，不静默降级为直连。
		channel, err = approval.Connect(ic.Broker, ic.Exchange)
		if err != nil {
			return err
		}
		defer channel.Close()
		interceptor, err := intercept.New(channel, b.journal)
		if err != nil {
			return err
		}
		hook = interceptor.Hook()

		sess.Agent, err = approval.Spawn(ic.Chatbot)
		if err != nil {
			return err
		}
		listener, err = approval.NewListener(channel, ic.Exchange+".decisions", b.journal)
		if err != nil {
			return err
		}
	}

	store, err := b.newStore(b.cfg, hook)
	if err != nil {
		return err
	}
	sess.Store = store
	if err := bindBroker(ctx, b.cfg, store, eng, sess); err != nil {
		return err
	}
	if err := provisionFeeds(ctx, plans, store, eng, sess); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := eng.Run(gctx)
		return err
	})
	if listener != nil {
		g.Go(func() error {
			if err := listener.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if b.cfg.App.HTTPAddr != "" {
		srv, err := livehttp.NewServer(livehttp.ServerConfig{
			Addr:    b.cfg.App.HTTPAddr,
			Status:  func() livehttp.Status { return b.statusOf(sess) },
			Journal: b.journalReader(),
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Start(gctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Infof("[bot] 实盘会话 %s 结束 agent=%s", sess.ID, sess.AgentState())
	return err
}

func (b *Bot) statusOf(sess *Session) livehttp.Status {
	status := livehttp.Status{
		SessionID:      sess.ID,
		Mode:           string(sess.Mode),
		Strategy:       sess.Strategy,
		Feeds:          sess.FeedNames(),
		InterceptState: string(sess.InterceptState),
		AgentState:     sess.AgentState(),
		StartedAt:      sess.StartedAt,
	}
	if sess.Agent != nil {
		status.AgentPID = sess.Agent.PID
	}
	return status
}

func (b *Bot) journalReader() livehttp.JournalReader {
	if b.journal == nil {
		return nil
	}
	return b.journal
}

func (b *Bot) persist(ctx context.Context, sess *Session, result *engine.Result) {
	if b.runs == nil {
		return
	}
	if err := b.runs.SaveRun(ctx, sess.ID, string(sess.Mode), sess.Strategy, sess.StartedAt, result); err != nil {
		logger.Warnf("[bot] 运行结果落库失败：%v", err)
	}
}
