package bot

import (
	"time"

	"bodhion/internal/approval"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/intercept"

	"github.com/google/uuid"
)

// Mode 是执行模式。三种模式共享同一条装配管线，只在收尾阶段分叉。
type Mode string

const (
	ModeBacktest Mode = "backtest"
	ModeOptimize Mode = "optimize"
	ModeRun      Mode = "run"
)

// Session 是一次执行会话的单一持有者视图：会话内创建的所有资源
// （store、broker、行情、代理句柄）随引擎运行结束一并废弃，不跨会话复用。
type Session struct {
	ID        string
	Mode      Mode
	Strategy  string
	StartedAt time.Time

	Store          exchange.Store
	Broker         exchange.Broker
	Feeds          []exchange.Feed
	InterceptState intercept.State
	Agent          *approval.AgentHandle
}

func newSession(mode Mode, strategyName string) *Session {
	return &Session{
		ID:             uuid.NewString(),
		Mode:           mode,
		Strategy:       strategyName,
		StartedAt:      time.Now().UTC(),
		InterceptState: intercept.StateDisabled,
	}
}

// FeedNames 按装配顺序返回行情标签。
func (s *Session) FeedNames() []string {
	out := make([]string, 0, len(s.Feeds))
	for _, f := range s.Feeds {
		out = append(out, f.Name())
	}
	return out
}

// AgentState 返回审批代理状态（未启用时为空）。
func (s *Session) AgentState() string {
	if s.Agent == nil {
		return ""
	}
	return string(s.Agent.State())
}
