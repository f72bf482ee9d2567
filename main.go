// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
plugin-req-squash serves the Squash TM requirement plugin of the console: the
subscription view fragments and the REST resources they link to.
*/
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/config"
	"github.com/ligoj/plugin-req-squash/core/audit"
	"github.com/ligoj/plugin-req-squash/core/requests"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/i18n"
	"github.com/ligoj/plugin-req-squash/server/assets"
	"github.com/ligoj/plugin-req-squash/server/router"
	"github.com/ligoj/plugin-req-squash/server/routes"
)

// Squash TM calls are bounded by their own client timeout; these only guard
// the console side of the connection (gosec G112).
const (
	readHeaderTimeout = 15 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = time.Minute

	shutdownGrace = 5 * time.Second
)

//go:embed all:po
var catalogues embed.FS

//nolint:gochecknoinits // the po files must be visible before i18n.Setup
func init() {
	assets.FS = catalogues
}

func main() {
	audit.SetDefaultLogger()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("plugin-req-squash stopped")
	}
}

func run() error {
	handler, err := newHandler()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", config.Global.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", config.Global.Address(), err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	log.Info().
		Str("address", listener.Addr().String()).
		Str("squash_rest", "/rest/"+squash.RestPath).
		Msg("Serving Squash TM plugin")

	served := make(chan error, 1)

	go func() { served <- server.Serve(listener) }()

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// newHandler loads the configuration, the catalogues and the subscription
// store, then mounts every plugin route.
func newHandler() (http.Handler, error) {
	if err := config.Global.LoadConfig(); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := i18n.Setup(); err != nil {
		return nil, fmt.Errorf("load catalogues: %w", err)
	}

	if err := requests.Setup(); err != nil {
		return nil, fmt.Errorf("set up Squash TM requests: %w", err)
	}

	store, err := subscription.LoadStore(config.Global.Subscriptions.File)
	if err != nil {
		return nil, err
	}

	routes.Setup(store, squash.NewClient(config.Global.Squash.PublicServer))

	r := router.NewRouter()
	r.DefineRoutes()
	r.RegisterMiddleware()

	return r, nil
}
