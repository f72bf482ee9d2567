// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"time"

	"github.com/ligoj/plugin-req-squash/config"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/server/middleware"
	"github.com/ligoj/plugin-req-squash/server/routes"
)

// restRoot is where the console mounts service resources.
const restRoot = "/rest/" + squash.RestPath

type route struct {
	pattern string
	handler func(w http.ResponseWriter, r *http.Request) error
}

// Literal segments win over {node}, so version and status never reach
// SquashProjects.
var pluginRoutes = []route{
	{"GET " + restRoot + "redirect/{subscription}", routes.SquashRedirect},
	{"GET " + restRoot + "version/{node}", routes.SquashVersion},
	{"GET " + restRoot + "status/{node}", routes.SquashStatus},
	{"POST " + restRoot + "link/{subscription}", routes.SquashLink},
	{"GET " + restRoot + "{node}/{criteria}", routes.SquashProjects},

	{"GET /subscription/configuration", routes.SubscriptionConfiguration},
	{"GET /subscription/{subscription}/key", routes.SubscriptionKey},
	{"GET /subscription/{subscription}/features", routes.SubscriptionFeatures},
	{"GET /subscription/{subscription}/details", routes.SubscriptionDetails},
}

// DefineRoutes mounts the Squash TM resources and the subscription view
// fragments. The profiling endpoints are only mounted in development mode.
func (router *Router) DefineRoutes() {
	for _, rt := range pluginRoutes {
		router.Handle(rt.pattern, middleware.CatchError(rt.handler))
	}

	if config.Global.Development.InDevelopment {
		router.mountDebug()
	}
}

var flightRecorder = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})

func (router *Router) mountDebug() {
	if err := flightRecorder.Start(); err != nil {
		panic(err)
	}

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
