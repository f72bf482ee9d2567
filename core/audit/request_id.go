// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// NewRequestID makes a short ID from the wall-clock time of day and 3 bytes
// of entropy. IDs name saved response files, so they are URL-safe.
func NewRequestID() string {
	return newRequestID(time.Now())
}

func newRequestID(now time.Time) string {
	var entropy [3]byte

	_, _ = rand.Read(entropy[:])

	return now.Format("150405") + base64.RawURLEncoding.EncodeToString(entropy[:])
}
