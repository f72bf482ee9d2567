// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import "net/http"

// Middleware handles a request in place of next, usually calling it.
type Middleware func(w http.ResponseWriter, r *http.Request, next http.Handler)

// Wrap returns m bound to next as an http.Handler.
func Wrap(m Middleware, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { m(w, r, next) }
}
