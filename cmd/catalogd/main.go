package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/openkiosk/catalogd/config"
	"github.com/openkiosk/catalogd/internal/adminapi"
	"github.com/openkiosk/catalogd/internal/app"
	"github.com/openkiosk/catalogd/internal/webserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	application := app.NewApplication(cfg)
	if err := application.Init(); err != nil {
		zap.S().Fatalf("startup failed: %v", err)
	}
	defer application.Release()

	server := webserver.NewWebServer(cfg)
	api := adminapi.New(application.ProductRepo(), application.AdminRepo(), application.Media())
	api.RegisterRoutes(server.APIGroup())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		zap.S().Fatalf("webserver error: %v", err)
	}
}
