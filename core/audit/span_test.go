// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 13, 5, 9, 0, time.UTC)
	id := newRequestID(now)

	assert.True(t, strings.HasPrefix(id, "130509"), id)
	assert.Len(t, id, 6+4)
	assert.NotEqual(t, NewRequestID(), NewRequestID())
}

func TestSpanRecordsMetric(t *testing.T) {
	t.Parallel()

	var header servertiming.Header

	ctx := servertiming.NewContext(context.Background(), &header)

	span := Span{Destination: ToSquash, Method: "GET", URL: "https://squash.test/squash/login?error"}
	span.Begin(ctx)
	time.Sleep(time.Millisecond)
	span.End()

	first := span.Elapsed()
	span.End()

	require.Len(t, header.Metrics, 1)
	assert.Equal(t, "squash", header.Metrics[0].Name)
	assert.Equal(t, "GET squash.test/squash/login", header.Metrics[0].Desc)
	assert.Positive(t, header.Metrics[0].Duration)
	assert.Equal(t, first, span.Elapsed(), "only the first End counts")
}

func TestSpanWithoutServerTiming(t *testing.T) {
	t.Parallel()

	span := Span{Destination: ToConsole, Method: "GET", URL: "/subscription/1/key"}
	span.Begin(context.Background())
	span.End()

	assert.Nil(t, span.metric)
}

func TestTargetIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, Target{}.IsZero())
	assert.False(t, Target{Node: "service:req:squash:main"}.IsZero())
	assert.False(t, Target{Subscription: 42}.IsZero())
}

// Not parallel: the global logger, SaveResponses and ResponseDirectory are package state.
func TestLog(t *testing.T) {
	var out bytes.Buffer

	previous := log.Logger
	level := zerolog.GlobalLevel()

	log.Logger = zerolog.New(&out)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	dir := t.TempDir()
	SaveResponses, ResponseDirectory = true, dir

	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(level)
		SaveResponses, ResponseDirectory = false, ""
	})

	squash := Span{
		Destination: ToSquash,
		Target:      Target{Node: "service:req:squash:main", Subscription: 42},
		RequestID:   "r1",
		Method:      "GET",
		URL:         "https://squash.test/squash/administration",
		StatusCode:  200,
		Body:        []byte("<html/>"),
	}
	squash.Log()

	console := Span{Destination: ToConsole, RequestID: "r2", Method: "GET", URL: "/subscription/42/key", Body: []byte("ok"), Error: errors.New("boom")}
	console.Log()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &event))
	assert.Equal(t, "squash.test", event["host"])
	assert.Equal(t, "/squash/administration", event["path"])
	assert.Equal(t, map[string]any{"node": "service:req:squash:main", "subscription": float64(42)}, event["target"])
	assert.Equal(t, filepath.Join(dir, "squash-r1"), event["saved"])

	var failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.Equal(t, "boom", failed["error"])
	assert.NotContains(t, failed, "target")

	body, err := os.ReadFile(filepath.Join(dir, "squash-r1"))
	require.NoError(t, err)
	assert.Equal(t, "<html/>", string(body))

	_, err = os.Stat(filepath.Join(dir, "console-r2"))
	assert.True(t, os.IsNotExist(err))
}

func TestFoldTraffic(t *testing.T) {
	t.Parallel()

	event := map[string]any{
		"sys":         "traffic",
		"destination": "squash",
		"status":      json.Number("302"),
		"method":      "POST",
		"host":        "squash.test",
		"path":        "/squash/login",
		"elapsed":     12.5,
	}

	require.NoError(t, foldTraffic(event))
	assert.Equal(t, map[string]any{
		"message": "squash 302 POST squash.test/squash/login",
		"elapsed": 12.5,
	}, event)

	other := map[string]any{"sys": "i18n", "message": "Loaded locale"}
	require.NoError(t, foldTraffic(other))
	assert.Equal(t, "Loaded locale", other["message"])
}
