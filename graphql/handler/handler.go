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

// Package handler serves a graphql.ExecutableSchema over HTTP with gqlgen's transports.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/botobag/bookshelf/dataloader"
	"github.com/botobag/bookshelf/graphql"

	gqlgen "github.com/99designs/gqlgen/graphql"
	gqlhandler "github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// config contains configuration for the handler.
type config struct {
	introspection bool
	logger        zerolog.Logger
}

// Option configures the handler.
type Option func(c *config)

// Introspection enables or disables __schema and __type queries. Introspection is enabled by
// default.
func Introspection(enabled bool) Option {
	return func(c *config) {
		c.introspection = enabled
	}
}

// Logger sets the logger that is attached to the context of every request. Requests are logged at
// info level once served.
func Logger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates a net/http.Handler that serves GraphQL queries against es via GET and POST. Every
// operation gets its own dataloader.Manager so that loaded values never leak across requests.
func New(es *graphql.ExecutableSchema, opts ...Option) http.Handler {
	c := config{
		introspection: true,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	srv := gqlhandler.New(es)
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	if c.introspection {
		srv.Use(extension.Introspection{})
	}

	schema := es.Executable()
	srv.AroundOperations(func(ctx context.Context, next gqlgen.OperationHandler) gqlgen.ResponseHandler {
		return next(dataloader.NewContext(ctx, schema.NewLoaders()))
	})

	srv.SetRecoverFunc(func(ctx context.Context, err interface{}) error {
		zerolog.Ctx(ctx).Error().
			Interface("panic", err).
			Msg("recovered from panic while serving operation")
		return gqlerror.Errorf("internal system error")
	})

	var h http.Handler = srv
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("served request")
	})(h)
	h = hlog.RequestIDHandler("requestID", "X-Request-Id")(h)
	h = hlog.NewHandler(c.logger)(h)
	return h
}
