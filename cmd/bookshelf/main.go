/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Command bookshelf serves the bookshelf GraphQL API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/botobag/bookshelf/bookshelf"
	"github.com/botobag/bookshelf/bookstore"
	"github.com/botobag/bookshelf/graphql/handler"
	"github.com/botobag/bookshelf/internal/config"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err == nil {
		err = config.ApplyEnv(cfg)
	}
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Str("addr", cfg.Addr()).
		Bool("introspection", cfg.IsIntrospectionEnabled()).
		Msg("starting bookshelf")

	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create store")
	}

	es, err := bookshelf.NewExecutableSchema(store, bookshelf.LoaderConfig{
		MaxBatchSize: cfg.Loader.MaxBatchSize,
		Wait:         cfg.Loader.Wait.Duration(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build schema")
	}

	mux := http.NewServeMux()
	mux.Handle("/", playground.Handler("bookshelf", "/query"))
	mux.Handle("/query", handler.New(es,
		handler.Introspection(cfg.IsIntrospectionEnabled()),
		handler.Logger(logger)))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}

// newStore creates the store described by cfg.
func newStore(cfg *config.Config, logger zerolog.Logger) (bookstore.Store, error) {
	var opts []bookstore.MemoryStoreOption
	if latency := cfg.StoreLatency.Duration(); latency > 0 {
		opts = append(opts, bookstore.WithLatency(latency))
	}

	var store bookstore.Store
	if cfg.Fixtures != "" {
		fixtures, err := bookstore.LoadFixtures(cfg.Fixtures)
		if err != nil {
			return nil, err
		}
		store = fixtures.NewStore(opts...)
		logger.Info().
			Str("fixtures", cfg.Fixtures).
			Int("authors", len(fixtures.Authors)).
			Int("books", len(fixtures.Books)).
			Msg("loaded fixtures")
	} else {
		store = bookstore.Default(opts...)
	}

	if !cfg.IsCacheEnabled() {
		logger.Info().Msg("cache disabled")
		return store, nil
	}

	cached, err := bookstore.NewCachedStore(store, cfg.Cache.Size, cfg.Cache.TTL.Duration())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	logger.Info().
		Int("size", cfg.Cache.Size).
		Stringer("ttl", cfg.Cache.TTL).
		Msg("cache enabled")
	return cached, nil
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
