package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/sommelier-labs/cellars-indexer/internal/adapter"
	"github.com/sommelier-labs/cellars-indexer/internal/domain"
	"github.com/sommelier-labs/cellars-indexer/internal/engine"
	"github.com/sommelier-labs/cellars-indexer/internal/logger"
)

// Config holds the configuration for the event indexer
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Indexer defines the interface for the event indexer
type Indexer interface {
	// Run starts consuming events
	Run(ctx context.Context) error
	// Close closes the indexer and cleans up resources
	Close()
}

type indexer struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	engine *engine.Engine
	json   adapter.JSON
	config Config
}

// NewIndexer creates a new event indexer consuming from NATS JetStream
func NewIndexer(
	cfg Config,
	natsJS adapter.NatsJetStream,
	eng *engine.Engine,
	jsonAdapter adapter.JSON,
) (Indexer, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &indexer{
		nc:     nc,
		js:     js,
		engine: eng,
		json:   jsonAdapter,
		config: cfg,
	}, nil
}

// Run starts consuming events
func (i *indexer) Run(ctx context.Context) error {
	logger.Info("Starting event indexer", zap.String("stream", i.config.StreamName), zap.String("consumer", i.config.ConsumerName))

	subject := "events.cellars.>"

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       i.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       i.config.AckWaitTimeout,
		MaxDeliver:    i.config.MaxDeliver,
		FilterSubject: subject,
	}

	consumer, err := i.js.CreateOrUpdateConsumer(ctx, i.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	// Aggregation is order sensitive, so messages are handled one at a
	// time on this goroutine rather than fanned out.
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down event indexer")
			return ctx.Err()
		case msg := <-msgChan:
			i.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes a single NATS message
func (i *indexer) handleMessage(ctx context.Context, msg adapter.Message) {
	// Get metadata for logging
	metadata, _ := msg.Metadata()

	var event domain.CellarEvent
	if err := i.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal event"))
		// Terminate message for unparseable data
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	fields := []zap.Field{
		zap.String("chain", string(event.Chain)),
		zap.String("kind", string(event.Kind)),
		zap.String("cellar", event.Cellar),
		zap.String("txHash", event.TxHash),
		zap.Uint64("block", event.Block),
	}
	if metadata != nil {
		fields = append(fields, zap.Uint64("deliveryCount", metadata.NumDelivered))
	}
	logger.Debug("Received event", fields...)

	if err := i.engine.Handle(ctx, &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to handle event"), zap.String("kind", string(event.Kind)))
		// NAK to retry
		if err := msg.Nak(); err != nil {
			logger.Error(err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	// ACK message after successful processing
	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// Close closes the indexer and cleans up resources
func (i *indexer) Close() {
	if i.nc != nil {
		i.nc.Close()
	}
}
