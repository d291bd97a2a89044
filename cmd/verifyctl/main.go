package main

import (
	"context"
	"log"
	"os"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/client/cli"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	os.Exit(app.Run(ctx, os.Args[1:]))

}
