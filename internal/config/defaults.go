package config

import "strings"

const (
	DefaultRetries     = 5
	DefaultOHLCVLimit  = 20
	DefaultCompression = 1
	DefaultTimeframe   = "Minutes"
	DefaultCash        = 1000
	// DefaultInterceptExchange 是拦截订单广播使用的 fanout exchange 名。
	DefaultInterceptExchange = "bodhion.orders"
)

// applyDefaults 填充缺省值。显式 false 通过指针字段区分（Sandbox/Short）。
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if c.Exchange.Retries <= 0 {
		c.Exchange.Retries = DefaultRetries
	}
	for i := range c.DataFeeds {
		feed := &c.DataFeeds[i]
		if strings.TrimSpace(feed.Timeframe) == "" {
			feed.Timeframe = DefaultTimeframe
		}
		if feed.Compression <= 0 {
			feed.Compression = DefaultCompression
		}
		if feed.OHLCVLimit <= 0 {
			feed.OHLCVLimit = DefaultOHLCVLimit
		}
	}
	if c.Backtest.Cash <= 0 {
		c.Backtest.Cash = DefaultCash
	}
	if c.OrderInterceptor != nil && strings.TrimSpace(c.OrderInterceptor.Exchange) == "" {
		c.OrderInterceptor.Exchange = DefaultInterceptExchange
	}
	if strings.TrimSpace(c.Report.Dir) == "" {
		c.Report.Dir = "reports"
	}
	if strings.TrimSpace(c.Runs.Path) == "" {
		c.Runs.Path = "data/runs.db"
	}
}
