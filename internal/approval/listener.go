package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bodhion/internal/logger"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// decisionSchema 约束审批代理发回的裁决载荷。
const decisionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["symbol", "approved"],
	"properties": {
		"symbol": {"type": "string", "minLength": 1},
		"approved": {"type": "boolean"},
		"operator": {"type": "string"},
		"reason": {"type": "string"}
	}
}`

// Decision 是操作员经审批代理发回的一次裁决。
// 拦截是审计式广播（publish-then-continue），裁决只入账，不回头拦截已提交的订单。
type Decision struct {
	Symbol     string    `json:"symbol"`
	Approved   bool      `json:"approved"`
	Operator   string    `json:"operator"`
	Reason     string    `json:"reason"`
	ReceivedAt time.Time `json:"received_at"`
}

// DecisionJournal 记录裁决审计行。
type DecisionJournal interface {
	RecordDecision(d Decision) error
}

// Listener 消费审批结果 fanout exchange，校验载荷并写入审计日志。
type Listener struct {
	channel  *Channel
	exchange string
	journal  DecisionJournal
	schema   *jsonschema.Schema
}

// NewListener 在既有通道上创建裁决监听器；exchangeName 为审批结果 exchange。
func NewListener(channel *Channel, exchangeName string, journal DecisionJournal) (*Listener, error) {
	if channel == nil {
		return nil, fmt.Errorf("approval channel cannot be nil")
	}
	schema, err := jsonschema.CompileString("decision.json", decisionSchema)
	if err != nil {
		return nil, fmt.Errorf("compile decision schema: %w", err)
	}
	if err := channel.DeclareFanout(exchangeName); err != nil {
		return nil, fmt.Errorf("declare decisions exchange %s: %w", exchangeName, err)
	}
	return &Listener{channel: channel, exchange: exchangeName, journal: journal, schema: schema}, nil
}

// Run 持续消费裁决消息直到 ctx 取消。
func (l *Listener) Run(ctx context.Context) error {
	deliveries, err := l.channel.Consume(l.exchange)
	if err != nil {
		return err
	}
	logger.Infof("[approval] 开始监听裁决 exchange=%s", l.exchange)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("decision channel closed")
			}
			l.handle(delivery.Body)
		}
	}
}

func (l *Listener) handle(body []byte) {
	decision, err := ParseDecision(l.schema, body)
	if err != nil {
		logger.Warnf("[approval] 丢弃非法裁决载荷：%v", err)
		return
	}
	verdict := "拒绝"
	if decision.Approved {
		verdict = "批准"
	}
	logger.Infof("[approval] 收到裁决：%s %s（operator=%s）", decision.Symbol, verdict, decision.Operator)
	if l.journal != nil {
		if err := l.journal.RecordDecision(decision); err != nil {
			logger.Warnf("[approval] 裁决审计写入失败：%v", err)
		}
	}
}

// ParseDecision 先做 schema 校验，再提取字段。
func ParseDecision(schema *jsonschema.Schema, body []byte) (Decision, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return Decision{}, fmt.Errorf("validate decision: %w", err)
	}
	parsed := gjson.ParseBytes(body)
	return Decision{
		Symbol:     parsed.Get("symbol").String(),
		Approved:   parsed.Get("approved").Bool(),
		Operator:   parsed.Get("operator").String(),
		Reason:     parsed.Get("reason").String(),
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// CompileDecisionSchema 暴露给测试与外部校验使用。
func CompileDecisionSchema() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("decision.json", decisionSchema)
}
