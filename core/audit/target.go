// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import "github.com/rs/zerolog"

// Target is the node and subscription an exchange was made for. Either may be
// unset, for example on the project search of a node.
type Target struct {
	Node         string
	Subscription int
}

// IsZero reports whether no node nor subscription is set.
func (t Target) IsZero() bool {
	return t.Node == "" && t.Subscription == 0
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (t Target) MarshalZerologObject(e *zerolog.Event) {
	if t.Node != "" {
		e.Str("node", t.Node)
	}

	if t.Subscription != 0 {
		e.Int("subscription", t.Subscription)
	}
}
