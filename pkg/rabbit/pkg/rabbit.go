package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	logging "interviewassistant/pkg/logger/pkg"
)

// Rabbit publishes transcript audit records and tails them back.
type Rabbit interface {
	Consume(ctx context.Context, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) error
	Publish(ctx context.Context, body []byte) error
}

// Config holds the rabbitmq.* keys. ExpireTime is a per-message TTL in milliseconds, 0 keeps messages.
type Config struct {
	Enabled     bool
	Address     string
	Port        int
	Username    string
	Password    string
	Queue       string
	MaxConsumer int
	ExpireTime  int
}

type rabbit struct {
	connectionUrl string
	queue         string
	maxConsumer   int
	expireTime    int
}

func ReadConfig() *Config {
	return &Config{
		Enabled:     viper.GetBool("rabbitmq.enabled"),
		Address:     viper.GetString("rabbitmq.address"),
		Port:        viper.GetInt("rabbitmq.port"),
		Username:    viper.GetString("rabbitmq.username"),
		Password:    viper.GetString("rabbitmq.password"),
		Queue:       viper.GetString("rabbitmq.public_queue"),
		MaxConsumer: viper.GetInt("rabbitmq.max_consumer"),
		ExpireTime:  viper.GetInt("rabbitmq.expire_time"),
	}
}

// New returns a Dummy when the broker is not configured.
func New(cfg *Config) Rabbit {
	if cfg == nil || !cfg.Enabled || cfg.Address == "" {
		return &Dummy{}
	}

	maxConsumer := cfg.MaxConsumer
	if maxConsumer <= 0 {
		maxConsumer = 1
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "interview.transcript"
	}

	connectionUrl := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Username, cfg.Password, cfg.Address, cfg.Port)
	return &rabbit{
		connectionUrl: connectionUrl,
		queue:         queue,
		maxConsumer:   maxConsumer,
		expireTime:    cfg.ExpireTime,
	}
}

func (r *rabbit) processMessage(ctx context.Context, msg amqp.Delivery, sem chan struct{}, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) {
	defer func() { <-sem }()

	if err := consumeFunction(ctx, msg); err != nil {
		logging.Logger(ctx).Error("Consume audit record", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func (r *rabbit) Consume(ctx context.Context, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	logging.Logger(ctx).Info("Connected to RabbitMQ", zap.String("queue", r.queue))

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.queue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, r.maxConsumer)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			sem <- struct{}{}
			go r.processMessage(ctx, msg, sem, consumeFunction)
		}
	}
}

func (r *rabbit) Publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.queue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}
	if r.expireTime > 0 {
		msg.Expiration = fmt.Sprintf("%d", r.expireTime)
	}

	if err := ch.PublishWithContext(ctx, "", q.Name, false, false, msg); err != nil {
		return err
	}

	logging.Logger(ctx).Debug("Published audit record", zap.Int("bytes", len(body)))
	return nil
}
