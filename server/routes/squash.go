// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ligoj/plugin-req-squash/core/requests"
	"github.com/ligoj/plugin-req-squash/core/squash"
)

// VersionData is the answer of the version route.
type VersionData struct {
	Version     string `json:"version"`
	LastVersion string `json:"lastVersion"`
}

// StatusData is the answer of the status route.
type StatusData struct {
	Status string `json:"status"`
}

// SquashRedirect sends the user to the requirement workspace of the subscribed
// project, with the cookies selecting that project in the requirement tree.
func SquashRedirect(w http.ResponseWriter, r *http.Request) error {
	sub, err := subscriptionFromPath(r)
	if err != nil {
		return err
	}

	target, cookies := squash.Redirect(sub.Parameters)

	for _, cookie := range cookies {
		http.SetCookie(w, cookie)
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, target, http.StatusFound)

	return nil
}

// SquashProjects lists the projects of a node whose name matches the criteria.
func SquashProjects(w http.ResponseWriter, r *http.Request) error {
	params, err := nodeFromPath(r)
	if err != nil {
		return err
	}

	projects, err := client.Projects(r.Context(), params, r.PathValue("criteria"))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, projects)
}

// SquashVersion returns the version of a node and the last released version.
//
// The release lookup goes to a public server; its failure only leaves
// LastVersion empty.
func SquashVersion(w http.ResponseWriter, r *http.Request) error {
	params, err := nodeFromPath(r)
	if err != nil {
		return err
	}

	var data VersionData

	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		var err error

		data.Version, err = client.Version(ctx, params)

		return err
	})

	g.Go(func() error {
		lastVersion, err := client.LastVersion(ctx)
		if err != nil {
			if requests.IsContextCanceled(err) {
				return err
			}

			log.Warn().Err(err).Msg("Failed to fetch the last Squash TM version")

			return nil
		}

		data.LastVersion = lastVersion

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, data)
}

// SquashStatus checks that a node answers and grants administration access.
func SquashStatus(w http.ResponseWriter, r *http.Request) error {
	params, err := nodeFromPath(r)
	if err != nil {
		return err
	}

	if err := client.CheckStatus(r.Context(), params); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, StatusData{Status: "UP"})
}

// SquashLink validates the project of a subscription before it is created.
func SquashLink(w http.ResponseWriter, r *http.Request) error {
	sub, err := subscriptionFromPath(r)
	if err != nil {
		return err
	}

	if err := client.Link(r.Context(), sub.Parameters); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
