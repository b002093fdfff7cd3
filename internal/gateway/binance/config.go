package binance

import (
	"strings"
	"time"
)

const (
	mainnetBaseURL = "https://api.binance.com"
	testnetBaseURL = "https://testnet.binance.vision"
)

type Config struct {
	APIKey    string
	APISecret string
	// Sandbox 为 true 时连测试网。
	Sandbox  bool
	Currency string
	Retries  int
	Debug    bool

	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	out.RESTBaseURL = strings.TrimSpace(out.RESTBaseURL)
	if out.RESTBaseURL == "" {
		if out.Sandbox {
			out.RESTBaseURL = testnetBaseURL
		} else {
			out.RESTBaseURL = mainnetBaseURL
		}
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.Retries <= 0 {
		out.Retries = 5
	}
	out.Currency = strings.ToUpper(strings.TrimSpace(out.Currency))
	return out
}
