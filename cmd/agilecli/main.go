package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/agileclient/internal/client/cli"
	"github.com/dmitrijs2005/agileclient/internal/client/client"
	"github.com/dmitrijs2005/agileclient/internal/client/config"
	"github.com/dmitrijs2005/agileclient/internal/client/manifest"
	"github.com/dmitrijs2005/agileclient/internal/client/syncer"
	"github.com/dmitrijs2005/agileclient/internal/client/upload"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr, cfg.LogLevel)

	in := bufio.NewReader(os.Stdin)
	if err := cli.FillCredentials(in, os.Stdout, &cfg.User, &cfg.Password); err != nil {
		log.Fatalf("reading credentials: %v", err)
	}

	db, err := manifest.InitDatabase(ctx, cfg.ManifestPath)
	if err != nil {
		log.Fatalf("opening manifest: %v", err)
	}
	defer db.Close()

	api := client.New(cfg.APIURL, cfg.User, cfg.Password,
		client.WithTimeout(cfg.Timeout),
		client.WithMaxTries(cfg.MaxTries),
		client.WithLogger(logger))
	up := upload.New(api, logger)
	s := syncer.New(api, up,
		syncer.WithConcurrency(cfg.Concurrency),
		syncer.WithPieceSize(cfg.PieceSize),
		syncer.WithChecksum(cfg.Checksum),
		syncer.WithManifest(manifest.NewSQLiteRepository(db)),
		syncer.WithLogger(logger))

	app := cli.NewApp(api, up, s, cfg.User, cfg.PieceSize, logger, in, os.Stdout)
	app.Run(ctx)

}
