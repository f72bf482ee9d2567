// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes holds the HTTP handlers of the plugin.

Handlers return an error instead of writing error responses themselves;
middleware.CatchError turns the error into a localized answer.
*/
package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ligoj/plugin-req-squash/assets/components/partials"
	"github.com/ligoj/plugin-req-squash/core/audit"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/server/request_context"
	"github.com/ligoj/plugin-req-squash/server/utils"
)

var (
	store  = &subscription.Store{}
	client = squash.NewClient("")
	view   = partials.DefaultSquashView
)

// Setup sets the subscriptions and the Squash TM client used by the handlers.
func Setup(s *subscription.Store, c *squash.Client) {
	store = s
	client = c
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	w.WriteHeader(statusCode)

	return encodeJSON(w, v)
}

func encodeJSON(w http.ResponseWriter, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// writeHTML renders component as an HTML fragment.
func writeHTML(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	return component.Render(r.Context(), w)
}

// subscriptionFromPath returns the subscription named by the path variable
// "subscription" and makes it the audit target of the request. A non-numeric
// identifier is not found either.
func subscriptionFromPath(r *http.Request) (*subscription.Subscription, error) {
	id, err := utils.PathInt(r, "subscription")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", subscription.ErrNotFound, err)
	}

	sub, err := store.Subscription(id)
	if err != nil {
		return nil, err
	}

	request_context.FromRequest(r).Target = audit.Target{Node: sub.Node, Subscription: sub.ID}

	return sub, nil
}

// nodeFromPath returns the parameters of the node named by the path variable
// "node" and makes it the audit target of the request.
func nodeFromPath(r *http.Request) (squash.Parameters, error) {
	node := r.PathValue("node")

	params, err := store.NodeParameters(node)
	if err != nil {
		return nil, err
	}

	request_context.FromRequest(r).Target = audit.Target{Node: node}

	return params, nil
}
