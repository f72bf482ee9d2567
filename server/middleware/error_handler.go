// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/core/audit"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/server/request_context"
	"github.com/ligoj/plugin-req-squash/server/routes"
)

// CatchError adapts a handler returning an error to http.HandlerFunc.
//
// The handler writes into a buffer. Its error decides what reaches the
// console:
//   - a [*squash.ValidationError] is answered 400 with the localized message
//     of the rejected parameter;
//   - an unknown subscription or node, or a buffered 404, renders the 404 page;
//   - any other error renders the 500 page unless the handler already wrote
//     an error status.
//
// Otherwise the buffer is sent as is. The request is logged once answered,
// with the subscription or node it targeted.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToConsole,
			RequestID:   rc.RequestID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}
		_ = span.Begin(r.Context())

		buffered := httptest.NewRecorder()
		rc.RequestError = handler(buffered, r)
		rc.StatusCode = outcome(buffered, rc.RequestError)

		var invalid *squash.ValidationError

		switch {
		case errors.As(rc.RequestError, &invalid):
			routes.ValidationError(w, r, invalid)
		case rc.StatusCode != buffered.Code, rc.StatusCode == http.StatusNotFound:
			routes.ErrorPage(w, r)
		default:
			maps.Copy(w.Header(), buffered.Header())
			w.WriteHeader(buffered.Code)

			if _, err := buffered.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.End()
		span.StatusCode = rc.StatusCode
		span.Error = rc.RequestError
		span.Target = rc.Target
		span.Log()
	}
}

// outcome is the status code answered for a handler that wrote buffered and
// returned err. A buffered 404 is replaced by the 404 page.
func outcome(buffered *httptest.ResponseRecorder, err error) int {
	var invalid *squash.ValidationError

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, subscription.ErrNotFound):
		return http.StatusNotFound
	case err != nil && buffered.Code < http.StatusBadRequest:
		return http.StatusInternalServerError
	default:
		return buffered.Code
	}
}
