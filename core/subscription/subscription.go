// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package subscription holds the subscription model shared by the view adapter,
the Squash TM client and the HTTP routes, and a read-only store loaded from YAML.
*/
package subscription

import (
	"sync"

	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/i18n"
)

// Subscription links a project of the console to a Squash TM project.
type Subscription struct {
	ID   int    `json:"id"`
	Node string `json:"node"`

	// Parameters are the subscription's own parameters merged over its node's.
	Parameters squash.Parameters `json:"parameters"`

	// Data is filled by a status check. Data.Project is nil until then.
	Data squash.StatusData `json:"data"`
}

// ProjectName returns the display name of the subscribed project, or "" when unknown.
func (s *Subscription) ProjectName() string {
	if s.Data.Project == nil {
		return ""
	}

	return s.Data.Project.Name
}

// Select2 is a remote select bound to a subscription parameter.
type Select2 struct {
	// Parameter is the parameter the selected value is written to.
	Parameter i18n.MsgKey `json:"parameter"`

	// RestPath is the base path queried with "<node>/<criteria>".
	RestPath string `json:"restPath"`
}

// Configuration is the subscription-parameters configuration handed to a
// service's view when a subscription form is built.
//
// It is safe for concurrent use.
type Configuration struct {
	mu      sync.Mutex
	selects []Select2
}

// RegisterSelect2 records a remote select.
func (c *Configuration) RegisterSelect2(parameter i18n.MsgKey, restPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selects = append(c.selects, Select2{Parameter: parameter, RestPath: restPath})
}

// Selects returns a copy of the registered remote selects, in registration order.
func (c *Configuration) Selects() []Select2 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Select2, len(c.selects))
	copy(out, c.selects)

	return out
}
