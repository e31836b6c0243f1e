package main

import (
	"context"
	"fmt"
	"log"

	"user-management-service/cmd/api/app"
	"user-management-service/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run() error {
	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	return a.Run(ctx)
}
