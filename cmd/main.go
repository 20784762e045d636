package main

import (
	"github.com/jeffleon2/draftea-checkout-service/config"
	"github.com/jeffleon2/draftea-checkout-service/internal/app"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("Error reading config: %v", err)
	}
	myApp := &app.App{}
	if err := myApp.Initialize(cfg); err != nil {
		logrus.Fatalf("failed to initialize checkout service: %v", err)
	}
	defer myApp.Close()

	if err := myApp.Run(); err != nil {
		logrus.Errorf("checkout service stopped: %v", err)
	}
}
