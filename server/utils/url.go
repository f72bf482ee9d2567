// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var errIncompleteURL = errors.New("want an absolute URL such as https://squash.example.com")

// ParseBaseURL parses raw as the absolute base URL of a server and drops the
// trailing slash of its path. what names the URL in errors.
func ParseBaseURL(raw, what string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%s %q: %w", what, raw, errIncompleteURL)
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u, nil
}

// PathInt parses the path wildcard name as a decimal integer.
func PathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("path variable %s is not a number: %w", name, err)
	}

	return n, nil
}
