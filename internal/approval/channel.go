package approval

import (
	"context"
	"fmt"

	"bodhion/internal/config"
	"bodhion/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel 是拦截订单广播使用的消息通道：一条 AMQP 连接 + 一个 fanout exchange。
// 每个启用拦截的 Run 会话持有一条连接，生命周期与会话一致；连接断开后不自动重连
// （已知限制，不做静默掩盖）。
type Channel struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// Connect 建立连接并立即声明 fanout exchange。
// 连接失败对启用拦截的会话是致命错误，由调用方在会话启动阶段处理。
func Connect(broker *config.MQBrokerConfig, exchangeName string) (*Channel, error) {
	if broker == nil {
		return nil, fmt.Errorf("order_interceptor.broker is not defined in config")
	}
	url := brokerURL(broker)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect message broker %s:%d: %w", broker.Host, broker.Port, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "fanout", false, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchangeName, err)
	}
	logger.Infof("[approval] 已连接消息 broker %s:%d，exchange=%s", broker.Host, broker.Port, exchangeName)
	return &Channel{conn: conn, channel: ch, exchange: exchangeName}, nil
}

func brokerURL(broker *config.MQBrokerConfig) string {
	user := broker.Username
	if user == "" {
		user = "guest"
	}
	pass := broker.Password
	if pass == "" {
		pass = "guest"
	}
	vhost := broker.VHost
	if vhost == "" {
		vhost = "/"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", user, pass, broker.Host, broker.Port, vhost)
}

// Publish 以空 routing key 发布到 fanout exchange（fanout 投递所有绑定消费者）。
func (c *Channel) Publish(ctx context.Context, payload []byte) error {
	return c.channel.PublishWithContext(ctx, c.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
}

// DeclareFanout 在同一连接上声明额外的 fanout exchange（如审批结果通道）。
func (c *Channel) DeclareFanout(name string) error {
	return c.channel.ExchangeDeclare(name, "fanout", false, false, false, false, nil)
}

// Consume 声明一个独占临时队列绑定到指定 fanout exchange 并开始消费。
func (c *Channel) Consume(exchangeName string) (<-chan amqp.Delivery, error) {
	q, err := c.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := c.channel.QueueBind(q.Name, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s to %s: %w", q.Name, exchangeName, err)
	}
	deliveries, err := c.channel.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	return deliveries, nil
}

func (c *Channel) ExchangeName() string { return c.exchange }

func (c *Channel) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
