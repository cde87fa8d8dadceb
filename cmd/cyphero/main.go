package main

import (
	"context"
	"log"

	"github.com/cyphero-app/cyphero/internal/cli"
	"github.com/cyphero-app/cyphero/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
