package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/classifier"
	"github.com/jeffleon2/draftea-checkout-service/internal/handlers"
	"github.com/jeffleon2/draftea-checkout-service/internal/publisher"
	"github.com/jeffleon2/draftea-checkout-service/internal/subscriber"
	"github.com/sirupsen/logrus"
)

type App struct {
	config   *config.Config
	Router   *gin.Engine
	Services *Services

	publisher *publisher.KafkaPublisher
	consumer  *subscriber.KafkaConsumer
	cancel    context.CancelFunc
	closers   []func() error
}

func (a *App) Initialize(cfg *config.Config) error {
	a.config = cfg
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	store, closeStore, err := OpenStore(cfg.Ledger, cfg.DB)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	a.closers = append(a.closers, closeStore)

	var pub classifier.Publisher
	if cfg.APP.KafkaEnabled {
		a.publisher = publisher.NewKafkaPublisher(cfg.Kafka.BrokerList(), cfg.Kafka.PublishTopicList(), cfg.Kafka.GetRetryConfig())
		a.closers = append(a.closers, a.publisher.Close)
		pub = a.publisher
	}

	services, err := NewServices(cfg, store, pub)
	if err != nil {
		return err
	}
	a.Services = services

	paymentGateway, err := services.NewGateway(cfg)
	if err != nil {
		return err
	}

	checkoutHandler := handlers.NewCheckoutHandler(paymentGateway, services.Guard, cfg.APP.RequireCSRF)
	webhookHandler := handlers.NewWebhookHandler(services.Webhooks)
	adminHandler := handlers.NewAdminHandler(services.Ledger, services.Errors, services.Guard)

	a.Router = gin.New()
	a.Router.Use(gin.Logger(), gin.Recovery(), handlers.SecurityHeaders(cfg.APP.AllowOrigin))
	a.RegisterRoutes(checkoutHandler, webhookHandler, adminHandler)

	services.Guard.StartCleanup(ctx, cfg.Security.CleanupInterval)
	if cfg.APP.KafkaEnabled {
		a.initSubscribers(ctx, webhookHandler)
	}
	return nil
}

func (a *App) Run() error {
	return a.Router.Run(fmt.Sprintf(":%s", a.config.APP.PORT))
}

// Close stops background work, waits for pending error reports and releases the store.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			logrus.Errorf("failed to close consumer: %v", err)
		}
	}
	if a.Services != nil {
		a.Services.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logrus.Errorf("failed to release resource: %v", err)
		}
	}
}

func (a *App) initSubscribers(ctx context.Context, webhookHandler *handlers.WebhookHandler) {
	a.consumer = subscriber.NewMultiTopicConsumer(
		a.config.Kafka.BrokerList(),
		a.config.Kafka.SubscriberTopicList(),
		a.config.Kafka.WebhookGroup,
		a.publisher,
		a.config.Kafka.GetRetryConfig(),
	)

	a.consumer.Listen(ctx, func(ctx context.Context, topic string, value []byte) error {
		logrus.WithField("topic", topic).Debug("received message")
		return webhookHandler.HandleEvents(ctx, topic, value)
	})
}
