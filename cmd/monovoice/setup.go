package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/monovoice/config"
	"github.com/nathoo/monovoice/storage"
	"github.com/nathoo/monovoice/storage/file"
	"github.com/nathoo/monovoice/storage/memory"
	"github.com/nathoo/monovoice/storage/postgres"
	"github.com/nathoo/monovoice/storage/redis"
	"github.com/nathoo/monovoice/storage/sqlite"
)

// openStore opens the snapshot store selected by cfg.Store.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreFile:
		dir := cfg.SaveDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, ".monovoice", "saves")
		}
		return file.Open(dir)
	case config.StoreSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.StoreRedis:
		return redis.Open(ctx, cfg.RedisURL)
	case config.StorePostgres:
		return postgres.Open(ctx, postgres.Options{
			Addr:     cfg.PGAddr,
			User:     cfg.PGUser,
			Password: cfg.PGPassword,
			Database: cfg.PGDatabase,
		})
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// newLogger builds the process logger. The TUI owns the terminal, so an
// interactive run without a log file discards log output.
func newLogger(cfg config.Config, interactive bool) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.Out = os.Stderr

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		log.Out = f
		closeFn = func() { f.Close() }
	case interactive:
		log.Out = io.Discard
	}
	return log, closeFn, nil
}
