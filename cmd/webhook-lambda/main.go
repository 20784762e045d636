package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/app"
	"github.com/jeffleon2/draftea-checkout-service/internal/classifier"
	"github.com/jeffleon2/draftea-checkout-service/internal/handlers"
	"github.com/jeffleon2/draftea-checkout-service/internal/publisher"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("Error reading config: %v", err)
	}

	handler, closeFn, err := newHandler(cfg)
	if err != nil {
		logrus.Fatalf("failed to build webhook handler: %v", err)
	}
	defer closeFn()

	lambda.Start(handler.HandleLambda)
}

// newHandler wires the webhook handler; the returned func releases the services and the store.
func newHandler(cfg *config.Config) (*handlers.WebhookHandler, func(), error) {
	store, release, err := app.OpenStore(cfg.Ledger, cfg.DB)
	if err != nil {
		return nil, nil, err
	}

	var pub classifier.Publisher
	if cfg.APP.KafkaEnabled {
		pub = publisher.NewKafkaPublisher(cfg.Kafka.BrokerList(), cfg.Kafka.PublishTopicList(), cfg.Kafka.GetRetryConfig())
	}

	services, err := app.NewServices(cfg, store, pub)
	if err != nil {
		if cerr := release(); cerr != nil {
			logrus.Errorf("failed to close ledger store: %v", cerr)
		}
		return nil, nil, err
	}

	closeFn := func() {
		services.Close()
		if err := release(); err != nil {
			logrus.Errorf("failed to close ledger store: %v", err)
		}
	}
	return handlers.NewWebhookHandler(services.Webhooks), closeFn, nil
}
