package exchange

import (
	"time"

	"bodhion/internal/timeframe"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderRequest 是一次下单请求。Price 仅限价单有意义。
type OrderRequest struct {
	Symbol string
	Type   OrderType
	Side   OrderSide
	Amount decimal.Decimal
	Price  decimal.Decimal
	Params map[string]any
}

type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Order 是提交后的订单快照。
type Order struct {
	ID          string
	Request     OrderRequest
	Status      OrderStatus
	FilledPrice decimal.Decimal
	SubmittedAt time.Time
}

// FeedRequest 描述一路行情的构建参数。
// Historical=true 时按 [FromDate, ToDate] 拉取有界区间；
// Historical=false 时以 FromDate 为回看起点做开放式实时流（ToDate 为 nil）。
type FeedRequest struct {
	Dataname    string
	Name        string
	Timeframe   timeframe.Unit
	Compression int
	FromDate    time.Time
	ToDate      *time.Time
	OHLCVLimit  int
	DropNewest  bool
	Historical  bool
	Debug       bool
}
