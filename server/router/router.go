// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"

	"github.com/ligoj/plugin-req-squash/server/middleware"
	"github.com/ligoj/plugin-req-squash/server/middleware/set_request_context"
)

// Router dispatches the plugin resources and view fragments through a fixed
// middleware chain.
type Router struct {
	*http.ServeMux

	chain []middleware.Middleware

	// handler is the ServeMux behind every middleware of chain.
	handler http.Handler
}

// NewRouter returns a Router with no routes and no middleware.
func NewRouter() *Router {
	mux := http.NewServeMux()

	return &Router{ServeMux: mux, handler: mux}
}

// Use appends m to the chain. The first middleware added runs first.
func (router *Router) Use(m middleware.Middleware) {
	router.chain = append(router.chain, m)

	var h http.Handler = router.ServeMux
	for i := len(router.chain) - 1; i >= 0; i-- {
		h = middleware.Wrap(router.chain[i], h)
	}

	router.handler = h
}

// RegisterMiddleware installs server timing, the request context and the
// response headers, in that order.
func (router *Router) RegisterMiddleware() {
	router.Use(middleware.WithServerTiming)
	router.Use(set_request_context.WithRequestContext)
	router.Use(middleware.SetResponseHeaders)
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.handler.ServeHTTP(w, r)
}
