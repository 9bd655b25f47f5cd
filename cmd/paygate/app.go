package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/paygate/adapters/airtel"
	"github.com/layer-3/paygate/adapters/events"
	"github.com/layer-3/paygate/adapters/store"
	"github.com/layer-3/paygate/adapters/tokenizer"
	"github.com/layer-3/paygate/adapters/txnid"
	"github.com/layer-3/paygate/config"
	"github.com/layer-3/paygate/ports"
	"github.com/layer-3/paygate/service"
	"github.com/redis/go-redis/v9"
)

// app holds the wired services shared by all commands
type app struct {
	cfg      *config.Config
	logger   watermill.LoggerAdapter
	tokens   *service.TokenManager
	payments *service.PaymentService
	verifier ports.CallerVerifier

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := watermill.NewStdLogger(cfg.LogDebug, false)
	a := &app{cfg: cfg, logger: logger}

	publisher, err := a.newPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)

	ids, err := txnid.New(cfg.TxnIDStrategy)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := airtel.NewClient(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.ProviderTimeout)

	a.tokens = service.NewTokenManager(client, store.NewMemoryStore(), logger,
		service.WithSafetyMargin(cfg.TokenSafetyMargin))
	a.payments = service.NewPaymentService(a.tokens, client, ids,
		events.NewWatermillPublisher(publisher), logger, cfg.Market())

	if cfg.APIJWTSecret != "" {
		a.verifier = tokenizer.NewJWTVerifier([]byte(cfg.APIJWTSecret), cfg.APIJWTAudience)
	}

	return a, nil
}

// newPublisher publishes to Redis streams when REDIS_URL is set, otherwise in process
func (a *app) newPublisher(ctx context.Context) (message.Publisher, error) {
	if a.cfg.RedisURL == "" {
		return gochannel.NewGoChannel(gochannel.Config{}, a.logger), nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisClient := redis.NewClient(opts)
	a.closers = append(a.closers, redisClient.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Events are best effort; keep serving payments
		a.logger.Error("Redis is unreachable, payment events will fail to publish", err, nil)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		a.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
	}

	return publisher, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Failed to close resource", err, nil)
		}
	}
	a.closers = nil
}
