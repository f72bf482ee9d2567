// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/core/requests"
	"github.com/ligoj/plugin-req-squash/core/subscription"
)

// SubscriptionKey renders the project key of a subscription.
func SubscriptionKey(w http.ResponseWriter, r *http.Request) error {
	sub, err := subscriptionFromPath(r)
	if err != nil {
		return err
	}

	return writeHTML(w, r, view.RenderKey(sub))
}

// SubscriptionFeatures renders the links of a subscription.
func SubscriptionFeatures(w http.ResponseWriter, r *http.Request) error {
	sub, err := subscriptionFromPath(r)
	if err != nil {
		return err
	}

	return writeHTML(w, r, view.RenderFeatures(sub))
}

// SubscriptionDetails renders the details carousel of a subscription.
//
// The project is read from Squash TM first. When that fails the carousel
// shows the stored project parameter instead.
func SubscriptionDetails(w http.ResponseWriter, r *http.Request) error {
	sub, err := subscriptionFromPath(r)
	if err != nil {
		return err
	}

	data, err := client.CheckSubscriptionStatus(r.Context(), sub.Parameters)
	switch {
	case err == nil:
		sub.Data = data
	case requests.IsContextCanceled(err):
		return err
	default:
		log.Debug().
			Err(err).
			Int("subscription", sub.ID).
			Msg("Showing subscription details without project data")
	}

	return writeHTML(w, r, view.RenderDetailsKey(sub))
}

// SubscriptionConfiguration returns the remote selects of the subscription form.
func SubscriptionConfiguration(w http.ResponseWriter, _ *http.Request) error {
	cfg := &subscription.Configuration{}

	view.ConfigureSubscriptionParameters(cfg)

	return writeJSON(w, http.StatusOK, cfg.Selects())
}
