// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/assets/components/partials"
	"github.com/ligoj/plugin-req-squash/config"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/server/request_context"
)

// ValidationErrorData is the JSON answer to a rejected parameter, grouped by parameter.
type ValidationErrorData struct {
	Code   string                       `json:"code"`
	Errors map[string][]ValidationIssue `json:"errors"`
}

// ValidationIssue is a single rule broken by a parameter.
type ValidationIssue struct {
	Rule       string `json:"rule"`
	Message    string `json:"message"`
	Parameters []any  `json:"parameters,omitempty"`
}

// ErrorPage renders an error page with the status code of the request context.
func ErrorPage(w http.ResponseWriter, r *http.Request) {
	rc := request_context.FromRequest(r)

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(rc.StatusCode)

	props := partials.ErrorProps{StatusCode: rc.StatusCode}
	if config.Global.Development.InDevelopment && rc.RequestError != nil {
		props.Detail = rc.RequestError.Error()
	}

	if err := partials.Error(props).Render(r.Context(), w); err != nil {
		log.Err(err).Msg("Failed to render the error page")
	}
}

// ValidationError writes verr as a localized JSON answer with status 400.
func ValidationError(w http.ResponseWriter, r *http.Request, verr *squash.ValidationError) {
	data := ValidationErrorData{
		Code: "validation",
		Errors: map[string][]ValidationIssue{
			string(verr.Parameter): {{
				Rule:       string(verr.Key),
				Message:    verr.Localize(r.Context()),
				Parameters: verr.Args,
			}},
		},
	}

	if err := writeJSON(w, http.StatusBadRequest, data); err != nil {
		log.Err(err).Msg("Failed to write the validation error")
	}
}
