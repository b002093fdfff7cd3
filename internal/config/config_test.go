package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSONWithDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"exchange": {"name": "binance", "config": {"api_key": "k", "api_secret": "s"}, "currency": "USDT"},
		"datafeeds": [{"name": "BTC", "dataname": "BTC/USDT"}]
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.Exchange.Name)
	assert.True(t, cfg.Exchange.IsSandbox(), "sandbox defaults to true")
	assert.Equal(t, DefaultRetries, cfg.Exchange.Retries)
	require.Len(t, cfg.DataFeeds, 1)
	assert.Equal(t, DefaultTimeframe, cfg.DataFeeds[0].Timeframe)
	assert.Equal(t, DefaultCompression, cfg.DataFeeds[0].Compression)
	assert.Equal(t, DefaultOHLCVLimit, cfg.DataFeeds[0].OHLCVLimit)
	assert.Equal(t, float64(DefaultCash), cfg.Backtest.Cash)
	assert.True(t, cfg.Backtest.AllowShort())
	assert.Nil(t, cfg.OrderInterceptor)
}

func TestLoadYAMLInterceptorDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
exchange:
  name: binance
  currency: USDT
  sandbox: false
  config:
    api_key: k
datafeeds:
  - name: ETH
    dataname: ETH/USDT
    timeframe: Days
    compression: 1
    ohlcv_limit: 10
order_interceptor:
  broker:
    host: localhost
    port: 5672
    username: guest
    password: guest
  chatbot:
    command: approval-agent
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Exchange.IsSandbox())
	require.NotNil(t, cfg.OrderInterceptor)
	assert.Equal(t, DefaultInterceptExchange, cfg.OrderInterceptor.Exchange)
	require.NotNil(t, cfg.OrderInterceptor.Broker)
	assert.Equal(t, 5672, cfg.OrderInterceptor.Broker.Port)
}

func TestLoadExplicitFalseShort(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"exchange": {"name": "binance", "currency": "USDT", "config": {}},
		"backtest": {"cash": 5000, "short": false, "commission": 0.001}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Backtest.Cash)
	assert.False(t, cfg.Backtest.AllowShort())
	assert.Equal(t, 0.001, cfg.Backtest.Commission)
}

func TestLoadRejectsBadInterceptorBroker(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"exchange": {"name": "binance", "currency": "USDT"},
		"order_interceptor": {"broker": {"host": "", "port": 0}}
	}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_interceptor.broker.host")
}

func TestRequire(t *testing.T) {
	require.NoError(t, Require("binance", "exchange.name"))
	require.NoError(t, Require(map[string]string{"k": "v"}, "exchange.config"))

	err := Require("", "exchange.name")
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "exchange.name", cfgErr.Path)
	assert.Equal(t, "exchange.name is not defined in config", err.Error())

	err = Require(nil, "broker_mapping")
	require.ErrorAs(t, err, &cfgErr)

	var nilMapping BrokerMapping
	err = Require(nilMapping, "broker_mapping")
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "broker_mapping", cfgErr.Path)

	var nilPtr *ChatbotConfig
	err = Require(nilPtr, "order_interceptor.chatbot")
	require.ErrorAs(t, err, &cfgErr)
}

func TestRequireFeedPathIncludesIndex(t *testing.T) {
	err := Require("", "datafeeds[2].dataname")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "datafeeds[2].dataname", cfgErr.Path)
}
