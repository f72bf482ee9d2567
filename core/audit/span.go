// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"runtime/trace"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
)

var (
	// SaveResponses keeps the bodies received from Squash TM and the public
	// server under ResponseDirectory, one file per request ID.
	SaveResponses bool

	// ResponseDirectory is where saved bodies go.
	ResponseDirectory string
)

const savedResponsePermissions = 0o600

// Span is one HTTP exchange, timed from Begin to End.
type Span struct {
	Destination TrafficDestination
	Target      Target
	RequestID   string
	Method      string
	URL         string
	StatusCode  int
	Error       error
	Cached      bool

	// Body is only saved, never logged.
	Body []byte

	started time.Time
	elapsed time.Duration
	task    *trace.Task
	metric  *servertiming.Metric
}

// Begin starts the clock and a runtime/trace task. When ctx carries a
// Server-Timing header, the span adds its metric to it.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.started = time.Now()

	ctx, span.task = trace.NewTask(ctx, "http."+string(span.Destination))

	if timing := servertiming.FromContext(ctx); timing != nil {
		span.metric = timing.NewMetric(string(span.Destination)).WithDesc(span.Method + " " + span.location()).Start()
	}

	return ctx
}

// End stops the clock. Only the first call counts.
func (span *Span) End() {
	if span.task == nil {
		return
	}

	span.elapsed = time.Since(span.started)
	span.task.End()
	span.task = nil

	if span.metric != nil {
		span.metric.Stop()
	}
}

// Elapsed returns the time between Begin and the first End.
func (span *Span) Elapsed() time.Duration {
	return span.elapsed
}

// location is the host and path of the URL, without query nor credentials.
func (span *Span) location() string {
	u, err := url.Parse(span.URL)
	if err != nil {
		return span.URL
	}

	return u.Host + u.Path
}

// Log writes the span as a debug traffic event and saves the body of
// outgoing calls when SaveResponses is set.
func (span *Span) Log() {
	event := log.Debug().
		Str("sys", sysTraffic).
		Str(fieldDestination, string(span.Destination)).
		Int(fieldStatus, span.StatusCode).
		Str(fieldMethod, span.Method)

	if u, err := url.Parse(span.URL); err == nil {
		event.Str(fieldHost, u.Host).Str(fieldPath, u.Path)
	} else {
		event.Str(fieldPath, span.URL)
	}

	if !span.Target.IsZero() {
		event.Object("target", span.Target)
	}

	event.Str("request_id", span.RequestID).
		Int("bytes", len(span.Body)).
		Dur("elapsed", span.elapsed)

	if span.Cached {
		event.Bool("cached", true)
	}

	if saved := span.save(); saved != "" {
		event.Str("saved", saved)
	}

	event.Err(span.Error).Send()
}

// save writes the body of an outgoing call and returns the file name, or ""
// when nothing was saved.
func (span *Span) save() string {
	if !SaveResponses || span.Destination == ToConsole || len(span.Body) == 0 {
		return ""
	}

	name := filepath.Join(ResponseDirectory, string(span.Destination)+"-"+span.RequestID)

	if err := os.WriteFile(name, span.Body, savedResponsePermissions); err != nil {
		log.Warn().Err(err).Str("request_id", span.RequestID).Msg("Failed to save response")

		return ""
	}

	return name
}
