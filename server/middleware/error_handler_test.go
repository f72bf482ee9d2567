// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/i18n"
	"github.com/ligoj/plugin-req-squash/server/request_context"
	"github.com/ligoj/plugin-req-squash/server/routes"
)

func TestMain(m *testing.M) {
	if err := i18n.SetupFS(os.DirFS("../..")); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// createTestRequest creates a test HTTP request with request context.
func createTestRequest(t *testing.T, target string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)

	return req.WithContext(request_context.WithRequestContext(req.Context(), req))
}

func TestCatchError(t *testing.T) {
	t.Parallel()

	handlerErr := errors.New("test handler error")

	tests := []struct {
		name        string
		handler     func(w http.ResponseWriter, r *http.Request) error
		wantStatus  int
		wantType    string
		wantBody    string
		wantErr     error
		wantHeaders http.Header
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, _ *http.Request) error {
				w.Header().Set("X-Test", "1")
				_, _ = w.Write([]byte(`{"status":"UP"}`))

				return nil
			},
			wantStatus:  http.StatusOK,
			wantBody:    `{"status":"UP"}`,
			wantHeaders: http.Header{"X-Test": {"1"}},
		},
		{
			name: "handled error status",
			handler: func(w http.ResponseWriter, _ *http.Request) error {
				w.WriteHeader(http.StatusConflict)

				return nil
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unhandled error",
			handler:    func(http.ResponseWriter, *http.Request) error { return handlerErr },
			wantStatus: http.StatusInternalServerError,
			wantType:   "text/html; charset=utf-8",
			wantBody:   "<h1>500</h1>",
			wantErr:    handlerErr,
		},
		{
			name: "not found status",
			handler: func(w http.ResponseWriter, _ *http.Request) error {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("discarded"))

				return nil
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "<h1>404</h1>",
		},
		{
			name: "unknown subscription",
			handler: func(http.ResponseWriter, *http.Request) error {
				return fmt.Errorf("subscription 9: %w", subscription.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   "Not Found",
			wantErr:    subscription.ErrNotFound,
		},
		{
			name: "validation error",
			handler: func(http.ResponseWriter, *http.Request) error {
				return fmt.Errorf("status: %w", squash.ErrLoginFailed)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   "application/json; charset=utf-8",
			wantBody:   `"rule":"squash-login"`,
			wantErr:    squash.ErrLoginFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := createTestRequest(t, "/test")
			rr := httptest.NewRecorder()

			CatchError(tt.handler).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)

			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rr.Header().Get("Content-Type"))
			}

			for name := range tt.wantHeaders {
				assert.Equal(t, tt.wantHeaders.Get(name), rr.Header().Get(name))
			}

			ctx := request_context.FromRequest(req)
			assert.Equal(t, tt.wantStatus, ctx.StatusCode)

			if tt.wantErr != nil {
				require.ErrorIs(t, ctx.RequestError, tt.wantErr)
			} else {
				require.NoError(t, ctx.RequestError)
			}
		})
	}
}

func TestCatchErrorLocalizesValidationErrors(t *testing.T) {
	t.Parallel()

	req := createTestRequest(t, "/test?lang=fr")
	rr := httptest.NewRecorder()

	CatchError(func(http.ResponseWriter, *http.Request) error {
		return squash.ErrProjectNotFound
	}).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var data routes.ValidationErrorData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &data))

	assert.Equal(t, "validation", data.Code)
	require.Len(t, data.Errors["service:req:squash:project"], 1)

	issue := data.Errors["service:req:squash:project"][0]
	assert.Equal(t, "squash-project", issue.Rule)
	assert.Equal(t, "Projet: Projet non trouvé", issue.Message)
}

func TestSetResponseHeaders(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()

	Wrap(SetResponseHeaders, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"), "handlers override the defaults")
	assert.Equal(t, "private, no-cache", baseHeaders.Get("Cache-Control"), "the defaults are not shared")
	assert.NotEmpty(t, rr.Header().Get("Plugin-Version"))
}
