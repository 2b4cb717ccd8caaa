package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/agileclient/internal/client/cli"
	"github.com/dmitrijs2005/agileclient/internal/client/client"
	"github.com/dmitrijs2005/agileclient/internal/client/config"
	"github.com/dmitrijs2005/agileclient/internal/client/manifest"
	"github.com/dmitrijs2005/agileclient/internal/client/syncer"
	"github.com/dmitrijs2005/agileclient/internal/client/upload"
	"github.com/dmitrijs2005/agileclient/internal/logging"
)

const usage = "usage: agilesync [-c config] [-u url] [-U user] [-P password] [-n concurrency] [-m manifest] [-pretend] [-checksum] <local-dir> <remote-dir>"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	args := config.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := cli.FillCredentials(bufio.NewReader(os.Stdin), os.Stderr, &cfg.User, &cfg.Password); err != nil {
		log.Fatalf("reading credentials: %v", err)
	}

	logger := logging.NewText(os.Stderr, cfg.LogLevel)

	opts := []syncer.Option{
		syncer.WithConcurrency(cfg.Concurrency),
		syncer.WithPieceSize(cfg.PieceSize),
		syncer.WithPretend(cfg.Pretend),
		syncer.WithChecksum(cfg.Checksum),
		syncer.WithLogger(logger),
	}
	if cfg.ManifestPath != "" {
		db, err := manifest.InitDatabase(ctx, cfg.ManifestPath)
		if err != nil {
			log.Fatalf("opening manifest: %v", err)
		}
		defer db.Close()
		opts = append(opts, syncer.WithManifest(manifest.NewSQLiteRepository(db)))
	}

	api := client.New(cfg.APIURL, cfg.User, cfg.Password,
		client.WithTimeout(cfg.Timeout),
		client.WithMaxTries(cfg.MaxTries),
		client.WithLogger(logger))

	stats, err := syncer.New(api, upload.New(api, logger), opts...).Run(ctx, args[0], args[1])
	if err != nil {
		logger.Error(ctx, "sync failed", "error", err)
		stop()
		os.Exit(1)
	}

	fmt.Printf("uploaded %d files (%d bytes), skipped %d, created %d directories in %s\n",
		stats.Uploaded, stats.Bytes, stats.Skipped, stats.Dirs, stats.Duration)
	if stats.Previous != nil {
		fmt.Printf("manifest tracks %d files; previous run %s finished %s\n",
			stats.Tracked, stats.Previous.ID, stats.Previous.FinishedAt.Format(time.RFC3339))
	}
}
