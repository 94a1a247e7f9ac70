package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/config"
	"github.com/newswatch/youtube-newswatch-go/internal/model"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

// confirmTimeout bounds the wait for a broker publish confirmation.
const confirmTimeout = 5 * time.Second

// VideoMessage is the payload handed to the synthesis pipeline for one
// newly discovered video.
type VideoMessage struct {
	MessageID string            `json:"message_id"`
	RunID     string            `json:"run_id"`
	Topic     string            `json:"topic"`
	Keywords  []string          `json:"keywords,omitempty"`
	Video     model.VideoRecord `json:"video"`
	EmittedAt time.Time         `json:"emitted_at"`
}

// VideoPublisher hands newly discovered videos to the synthesis pipeline
// over RabbitMQ with publisher confirms. A confirmed publish is the
// "synthesis handoff succeeded" signal the ledger mark depends on.
type VideoPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.RWMutex
}

// NewVideoPublisher connects to RabbitMQ and declares the exchange, queue
// and binding for discovered-video messages.
func NewVideoPublisher(cfg *config.RabbitMQConfig) (*VideoPublisher, error) {
	vp := &VideoPublisher{config: cfg}
	if err := vp.connect(); err != nil {
		return nil, err
	}
	return vp, nil
}

func (vp *VideoPublisher) connect() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		vp.config.User, vp.config.Password, vp.config.Host, vp.config.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		vp.config.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		vp.config.Queue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		amqp.Table{
			"x-message-ttl": 86400000, // 24 hours
		},
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		vp.config.Queue,
		vp.config.RoutingKey,
		vp.config.Exchange,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	vp.conn = conn
	vp.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", vp.config.Exchange),
		zap.String("queue", vp.config.Queue),
	)

	return nil
}

// PublishNewVideo publishes one discovered video and waits for the broker
// confirmation. Returning nil means the synthesis pipeline durably owns
// the message and the caller may mark the video processed.
func (vp *VideoPublisher) PublishNewVideo(ctx context.Context, result *model.TopicResult, keywords []string, video model.VideoRecord) error {
	vp.mu.RLock()
	defer vp.mu.RUnlock()

	if vp.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	msg := VideoMessage{
		MessageID: uuid.NewString(),
		RunID:     result.RunID.String(),
		Topic:     result.TopicName,
		Keywords:  keywords,
		Video:     video,
		EmittedAt: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal video message: %w", err)
	}

	// Deferred confirmations track each publish individually, so
	// publishing video after video on the same channel stays confirmable.
	confirmation, err := vp.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		vp.config.Exchange,
		vp.config.RoutingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.EmittedAt,
			MessageId:    msg.MessageID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(confirmCtx)
	if err != nil {
		return fmt.Errorf("wait for publish confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("message was not acknowledged by broker")
	}

	logger.Log.Debug("Published discovered video",
		zap.String("messageId", msg.MessageID),
		zap.String("videoId", video.VideoID),
		zap.String("routingKey", vp.config.RoutingKey),
	)

	return nil
}

// Close shuts down the channel and connection.
func (vp *VideoPublisher) Close() error {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	var errs []error
	if vp.channel != nil {
		if err := vp.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if vp.conn != nil {
		if err := vp.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the connection and channel are open.
func (vp *VideoPublisher) IsHealthy() bool {
	vp.mu.RLock()
	defer vp.mu.RUnlock()

	return vp.conn != nil && !vp.conn.IsClosed() && vp.channel != nil
}
