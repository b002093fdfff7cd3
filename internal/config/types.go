package config

// Config 是 bodhion 的主配置载体，每次会话加载一次，之后不可变。
type Config struct {
	Debug            bool               `toml:"debug"`
	App              AppConfig          `toml:"app"`
	Exchange         ExchangeConfig     `toml:"exchange"`
	BrokerMapping    BrokerMapping      `toml:"broker_mapping"`
	DataFeeds        []DataFeedSpec     `toml:"datafeeds"`
	Backtest         BacktestConfig     `toml:"backtest"`
	OrderInterceptor *InterceptorConfig `toml:"order_interceptor"`
	Report           ReportConfig       `toml:"report"`
	Runs             RunsConfig         `toml:"runs"`
}

type AppConfig struct {
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

// ExchangeConfig 描述交易所连接方式与结算币种。
type ExchangeConfig struct {
	Name     string            `toml:"name"`
	Config   map[string]string `toml:"config"`
	Sandbox  *bool             `toml:"sandbox"`
	Currency string            `toml:"currency"`
	Retries  int               `toml:"retries"`
}

// IsSandbox 返回 sandbox 标志（缺省为 true，避免误连实盘）。
func (e ExchangeConfig) IsSandbox() bool {
	if e.Sandbox == nil {
		return true
	}
	return *e.Sandbox
}

// BrokerMapping 是把抽象仓位/币种单位翻译为具体 broker 记账模型的策略，
// 结构由 broker 适配器自行解释。
type BrokerMapping map[string]any

// DataFeedSpec 声明一路行情。Name 与 Dataname 必填。
type DataFeedSpec struct {
	Name        string `toml:"name"`
	Dataname    string `toml:"dataname"`
	Timeframe   string `toml:"timeframe"`
	Compression int    `toml:"compression"`
	OHLCVLimit  int    `toml:"ohlcv_limit"`
	ToDate      string `toml:"todate"`
	DropNewest  bool   `toml:"drop_newest"`
}

// BacktestConfig 配置模拟 broker 的初始资金、做空许可与固定费率。
type BacktestConfig struct {
	Cash       float64 `toml:"cash"`
	Short      *bool   `toml:"short"`
	Commission float64 `toml:"commission"`
}

// AllowShort 返回做空许可（缺省 true）。
func (b BacktestConfig) AllowShort() bool {
	if b.Short == nil {
		return true
	}
	return *b.Short
}

// InterceptorConfig 配置订单拦截：消息 broker 连接、广播 exchange 名与审批代理。
type InterceptorConfig struct {
	Broker   *MQBrokerConfig `toml:"broker"`
	Exchange string          `toml:"exchange"`
	Chatbot  *ChatbotConfig  `toml:"chatbot"`
}

// MQBrokerConfig 描述消息 broker（AMQP）的连接参数。
type MQBrokerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	VHost    string `toml:"vhost"`
}

// ChatbotConfig 描述审批代理进程的启动方式；Config 原样传给子进程。
type ChatbotConfig struct {
	Command string         `toml:"command"`
	Args    []string       `toml:"args"`
	Config  map[string]any `toml:"config"`
	LogPath string         `toml:"log_path"`
}

type ReportConfig struct {
	Dir string `toml:"dir"`
}

type RunsConfig struct {
	Path string `toml:"path"`
}
