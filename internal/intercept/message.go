package intercept

import (
	"encoding/json"

	"bodhion/internal/gateway/exchange"

	"github.com/shopspring/decimal"
)

// OrderMessage 是一笔外发订单的不可变快照，即广播到审批通道的载荷。
type OrderMessage struct {
	Symbol    string          `json:"symbol"`
	OrderType string          `json:"order_type"`
	Side      string          `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Param     map[string]any  `json:"param"`
}

// NewOrderMessage 从下单请求构建快照。
func NewOrderMessage(req exchange.OrderRequest) OrderMessage {
	return OrderMessage{
		Symbol:    req.Symbol,
		OrderType: string(req.Type),
		Side:      string(req.Side),
		Amount:    req.Amount,
		Price:     req.Price,
		Param:     req.Params,
	}
}

// Encode 序列化为 JSON 载荷。
func (m OrderMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
