package engine

import (
	"context"
	"io"
	"time"

	"bodhion/internal/gateway/exchange"
	"bodhion/internal/strategy"

	"github.com/shopspring/decimal"
)

// Engine 是执行引擎契约：编排器把完全装配好的会话交给它驱动。
// Backtest/Optimize 用内置模拟 broker 跑完即止；Run 绑定真实 broker 持续事件驱动。
type Engine interface {
	AddStrategy(s strategy.Strategy)

	// OptimizeStrategy 注册参数扫描：对 grid 中每组参数构造一个实例分别推演。
	OptimizeStrategy(factory strategy.Factory, grid []map[string]any)

	// SetBroker 绑定实盘 broker（仅 Run 模式）。
	SetBroker(b exchange.Broker)

	// ConfigureSimBroker 设置模拟 broker 的初始资金、做空许可与费率。
	// 幂等：每个会话在行情装配前调用一次。
	ConfigureSimBroker(cash decimal.Decimal, short bool, commission decimal.Decimal)

	// AddData 按声明顺序挂载行情；顺序影响策略对多路行情的索引，必须保持。
	AddData(f exchange.Feed)

	Run(ctx context.Context) (*Result, error)

	// Plot 输出本次推演的图表报告（仅回测有意义）。
	Plot(w io.Writer) error
}

// OrderRecord 记录一次模拟成交。
type OrderRecord struct {
	Time   time.Time       `json:"time"`
	Feed   string          `json:"feed"`
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Fee    decimal.Decimal `json:"fee"`
}

// EquityPoint 是资金曲线上的一个采样。
type EquityPoint struct {
	TS     int64   `json:"ts"`
	Equity float64 `json:"equity"`
}

// InstanceResult 是优化模式下单组参数的结果。
type InstanceResult struct {
	Params     map[string]any `json:"params"`
	FinalValue float64        `json:"final_value"`
	ReturnPct  float64        `json:"return_pct"`
	Orders     int            `json:"orders"`
}

// Result 汇总一次引擎运行。
type Result struct {
	StartCash  float64          `json:"start_cash"`
	FinalValue float64          `json:"final_value"`
	ReturnPct  float64          `json:"return_pct"`
	Orders     []OrderRecord    `json:"orders"`
	Equity     []EquityPoint    `json:"equity"`
	Instances  []InstanceResult `json:"instances,omitempty"`
	FinishedAt time.Time        `json:"finished_at"`
}
