// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package request_context holds the state of one console request: its ID, the
negotiated language, the node or subscription it works on, and the outcome
written by the error middleware.

It is a package of its own so that core packages can read it without
importing the server.
*/
package request_context

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/ligoj/plugin-req-squash/core/audit"
	"github.com/ligoj/plugin-req-squash/i18n"
)

// RequestContext is created once per request by the first middleware and
// shared by pointer for the rest of it.
type RequestContext struct {
	RequestID string

	// Language is the locale matched from the lang query, the lang cookie
	// and Accept-Language.
	Language language.Tag

	// Header is the incoming header set. Squash TM calls made for this request
	// honor its Cache-Control directives.
	Header http.Header

	// Target is the node or subscription resolved from the path, attached to
	// every span of the request.
	Target audit.Target

	// StatusCode and RequestError are the outcome, set by middleware.CatchError.
	StatusCode   int
	RequestError error
}

type key struct{}

// WithRequestContext negotiates the language of r and returns ctx carrying
// both the language and a fresh RequestContext.
func WithRequestContext(ctx context.Context, r *http.Request) context.Context {
	tag := i18n.FromRequest(r)

	return context.WithValue(i18n.WithTag(ctx, tag), key{}, &RequestContext{
		RequestID:  audit.NewRequestID(),
		Language:   tag,
		Header:     r.Header,
		StatusCode: http.StatusOK,
	})
}

// FromContext returns the RequestContext of ctx. Outside a console request,
// such as in a background job or a test, it returns an unshared empty one.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(key{}).(*RequestContext); ok {
		return rc
	}

	return &RequestContext{}
}

// FromRequest returns the RequestContext of r.
func FromRequest(r *http.Request) *RequestContext {
	return FromContext(r.Context())
}
