// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"net/http"
	"net/url"
)

// RequestOptions are parameters for [Session.Do].
type RequestOptions struct {
	Method string
	URL    string

	// Form is sent url-encoded as the body of a POST request.
	Form url.Values

	// Header is merged into the outgoing request headers.
	Header http.Header

	// CacheScope isolates cached GET responses, typically per Squash TM account.
	// An empty scope disables caching for the request.
	CacheScope string

	// IncomingHeaders are the headers of the console request that triggered this one.
	// A "no-cache" or "no-store" Cache-Control directive is honored.
	IncomingHeaders http.Header
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Cached is true when the response was served from the response cache.
	Cached bool
}

// IsRedirect reports whether the response is a 3xx redirection with a target.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= http.StatusMultipleChoices &&
		r.StatusCode < http.StatusBadRequest &&
		r.Header.Get("Location") != ""
}

// IsOK reports whether the response has a 200 status.
func (r *Response) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// IsSuccess reports whether the response has a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}
