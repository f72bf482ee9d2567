// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/ligoj/plugin-req-squash/config"
	"github.com/ligoj/plugin-req-squash/core/audit"
	"github.com/ligoj/plugin-req-squash/server/request_context"
	"github.com/ligoj/plugin-req-squash/server/utils"
)

const formContentType = "application/x-www-form-urlencoded"

var (
	errInvalidJSON      = errors.New("response contained invalid JSON")
	errAPIResponseError = errors.New("API response indicated error")
)

// limiter throttles requests sent to Squash TM instances.
var limiter = rate.NewLimiter(rate.Inf, 0)

func setupLimiter() {
	if config.Global.Squash.RequestsPerSecond <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)

		return
	}

	limiter = rate.NewLimiter(rate.Limit(config.Global.Squash.RequestsPerSecond), config.Global.Squash.Burst)
}

// APIError represents a non-successful HTTP status returned by a remote server.
type APIError struct {
	// StatusCode is the HTTP status code from the response.
	StatusCode int

	// Message contains the error message from the response, or the status text.
	Message string

	// Err is the underlying error cause.
	Err error
}

// Error returns a formatted error message including the status code and message if available.
func (e *APIError) Error() string {
	var b strings.Builder

	b.WriteString(e.Err.Error())

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	fmt.Fprintf(&b, " (status code: %d)", e.StatusCode)

	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Session is a sequence of requests sharing cookies, such as a Squash TM login
// followed by authenticated page loads. Redirects are not followed, so callers
// can inspect them.
//
// A Session is safe for concurrent use, but is usually owned by one operation.
type Session struct {
	client      *http.Client
	destination audit.TrafficDestination
}

// NewSession returns a session with an empty cookie jar, whose requests are
// logged under destination.
func NewSession(destination audit.TrafficDestination) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Transport: utils.Transport,
			Jar:       jar,
			Timeout:   config.Global.Squash.RequestTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		destination: destination,
	}, nil
}

// Do sends a request and returns the fully read response.
//
// GET requests with a cache scope may be answered from the response cache, and
// their OK responses are stored there. Do does not check for non-OK status
// codes, leaving that task to the caller.
func (s *Session) Do(ctx context.Context, opts RequestOptions) (*Response, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}

	if opts.IncomingHeaders == nil {
		opts.IncomingHeaders = request_context.FromContext(ctx).Header
	}

	var policy cachePolicy
	if opts.Method == http.MethodGet {
		policy = determineCachePolicy(opts.URL, opts.CacheScope, opts.IncomingHeaders)
		if policy.cachedItem != nil {
			resp := policy.cachedItem.response()

			rc := request_context.FromContext(ctx)
			span := audit.Span{
				Destination: s.destination,
				Target:      rc.Target,
				RequestID:   rc.RequestID,
				Method:      opts.Method,
				URL:         opts.URL,
				StatusCode:  resp.StatusCode,
				Cached:      true,
			}
			span.Log()

			return resp, nil
		}
	}

	req, err := newRequest(ctx, opts)
	if err != nil {
		return nil, err
	}

	if s.destination == audit.ToSquash {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if policy.shouldStore && resp.IsOK() {
		store(opts.URL, opts.CacheScope, resp)
	}

	return resp, nil
}

// Get performs a GET request and returns the body, or an *APIError when the
// status is not 200.
func (s *Session) Get(ctx context.Context, rawURL, scope string) ([]byte, error) {
	resp, err := s.Do(ctx, RequestOptions{
		Method:     http.MethodGet,
		URL:        rawURL,
		CacheScope: scope,
	})
	if err != nil {
		return nil, err
	}

	if !resp.IsOK() {
		return nil, newAPIError(resp)
	}

	return resp.Body, nil
}

// GetJSON makes a one-off GET request to a public JSON API and returns the
// parsed document.
func GetJSON(ctx context.Context, rawURL string) (gjson.Result, error) {
	session, err := NewSession(audit.ToPublicServer)
	if err != nil {
		return gjson.Result{}, err
	}

	resp, err := session.Do(ctx, RequestOptions{
		Method: http.MethodGet,
		URL:    rawURL,
		Header: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return gjson.Result{}, err
	}

	if !resp.IsOK() {
		return gjson.Result{}, newAPIError(resp)
	}

	if len(resp.Body) == 0 {
		return gjson.Result{}, nil
	}

	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, fmt.Errorf("%w: %.200s", errInvalidJSON, resp.Body)
	}

	return gjson.ParseBytes(resp.Body), nil
}

// newAPIError builds an *APIError from a non-OK response, preferring a JSON
// "message" field, then the status text.
func newAPIError(resp *Response) *APIError {
	message := gjson.GetBytes(resp.Body, "message").String()

	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if message == "" {
		message = "An unknown API error occurred"
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Err:        errAPIResponseError,
	}
}

// newRequest constructs an *http.Request from RequestOptions.
func newRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	var body io.Reader

	if opts.Form != nil {
		body = strings.NewReader(opts.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	maps.Copy(req.Header, opts.Header)

	req.Header.Set("User-Agent", config.UserAgent())

	if opts.Form != nil {
		req.Header.Set("Content-Type", formContentType)
	}

	return req, nil
}

// send executes the HTTP request and reads the body for auditing.
func (s *Session) send(ctx context.Context, req *http.Request) (_ *Response, err error) {
	rc := request_context.FromContext(ctx)
	span := audit.Span{
		Destination: s.destination,
		Target:      rc.Target,
		RequestID:   rc.RequestID + "-" + audit.NewRequestID(),
		Method:      req.Method,
		URL:         req.URL.Redacted(),
	}

	defer func() {
		span.Error = err

		span.End()
		span.Log()
	}()

	_ = span.Begin(ctx)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// IsContextCanceled returns true if the error is due to context cancellation or deadline exceeded.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
