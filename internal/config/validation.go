package config

import (
	"fmt"
	"reflect"
	"strings"
)

// ConfigurationError 表示某个必填配置项缺失，Path 为点分路径（如 datafeeds[2].dataname）。
type ConfigurationError struct {
	Path string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not defined in config", e.Path)
}

// Require 检查必填配置项；值缺失（nil、空字符串、空 map/slice）时返回 ConfigurationError。
// 无副作用，必须在任何使用该字段的外部调用之前执行。
func Require(value any, path string) error {
	if isAbsent(value) {
		return &ConfigurationError{Path: path}
	}
	return nil
}

func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]string:
		return v == nil
	case map[string]any:
		return v == nil
	case BrokerMapping:
		return v == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// validate 对加载后的配置做基础一致性校验。
// 必填项的逐字段校验由使用方（StoreFactory/BrokerBinder/Provisioner）在使用前完成。
func validate(c *Config) error {
	if c.Exchange.Retries < 0 {
		return fmt.Errorf("exchange.retries must be >= 0")
	}
	if c.Backtest.Cash <= 0 {
		return fmt.Errorf("backtest.cash must be > 0")
	}
	if c.Backtest.Commission < 0 {
		return fmt.Errorf("backtest.commission must be >= 0")
	}
	for i, feed := range c.DataFeeds {
		if feed.Compression <= 0 {
			return fmt.Errorf("datafeeds[%d].compression must be > 0", i)
		}
		if feed.OHLCVLimit <= 0 {
			return fmt.Errorf("datafeeds[%d].ohlcv_limit must be > 0", i)
		}
	}
	if ic := c.OrderInterceptor; ic != nil && ic.Broker != nil {
		if strings.TrimSpace(ic.Broker.Host) == "" {
			return fmt.Errorf("order_interceptor.broker.host cannot be empty")
		}
		if ic.Broker.Port <= 0 {
			return fmt.Errorf("order_interceptor.broker.port must be > 0")
		}
	}
	return nil
}
