// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package partials

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligoj/plugin-req-squash/assets/components/fragments"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/i18n"
)

func TestMain(m *testing.M) {
	if err := i18n.SetupFS(os.DirFS("../../..")); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// recorder is a Framework whose components print the arguments they were built with.
type recorder struct {
	carouselStart int
	carouselItems []fragments.CarouselItem
	selects       [][2]string
}

func marker(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)

		return err
	})
}

func (r *recorder) RenderKey(sub *subscription.Subscription, key i18n.MsgKey) templ.Component {
	return marker("[key %d %s]", sub.ID, key)
}

func (r *recorder) RenderServiceLink(icon, href string, title i18n.MsgKey, text string, attrs templ.Attributes) templ.Component {
	return marker("[link %s %s %s %q %v]", icon, href, title, text, attrs["target"])
}

func (r *recorder) RenderServiceHelpLink(_ map[string]string, key i18n.MsgKey) templ.Component {
	return marker("[help %s]", key)
}

func (r *recorder) GenerateCarousel(_ *subscription.Subscription, items []fragments.CarouselItem, start int) templ.Component {
	r.carouselItems = items
	r.carouselStart = start

	return templ.NopComponent
}

func (r *recorder) RegisterXServiceSelect2(_ *subscription.Configuration, key i18n.MsgKey, restPath string) {
	r.selects = append(r.selects, [2]string{string(key), restPath})
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()

	var b strings.Builder

	require.NoError(t, c.Render(context.Background(), &b))

	return b.String()
}

func fixture(name *string) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:         42,
		Parameters: squash.Parameters{string(squash.ParamProject): "Beta"},
	}

	if name != nil {
		sub.Data.Project = &squash.Project{ID: 2, Name: *name}
	}

	return sub
}

func ptr(s string) *string { return &s }

func TestRenderKey(t *testing.T) {
	t.Parallel()

	view := NewSquashView(&recorder{})

	assert.Equal(t, "[key 42 service:req:squash:project]", render(t, view.RenderKey(fixture(nil))))
}

func TestRenderFeatures(t *testing.T) {
	t.Parallel()

	view := NewSquashView(&recorder{})

	assert.Equal(t,
		`[link home rest/service/req/squash/redirect/42 service:req:squash:project "" _blank][help service:req:help]`,
		render(t, view.RenderFeatures(fixture(nil))))
}

func TestRenderDetailsKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sub  *subscription.Subscription
		want string
	}{
		{"display name", fixture(ptr("Alpha")), "Alpha"},
		{"empty display name", fixture(ptr("")), "Beta"},
		{"project not fetched", fixture(nil), "Beta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fw := &recorder{}
			original := *tt.sub

			render(t, NewSquashView(fw).RenderDetailsKey(tt.sub))

			require.Len(t, fw.carouselItems, 2)
			assert.Equal(t, 1, fw.carouselStart)

			assert.Equal(t, squash.ParamProject, fw.carouselItems[0].Label)
			assert.Equal(t, "[key 42 service:req:squash:project]", render(t, fw.carouselItems[0].Value))

			assert.Equal(t, i18n.Name, fw.carouselItems[1].Label)
			assert.Equal(t, tt.want, render(t, fw.carouselItems[1].Value))

			assert.Equal(t, original, *tt.sub, "the subscription is left untouched")
		})
	}
}

func TestConfigureSubscriptionParameters(t *testing.T) {
	t.Parallel()

	fw := &recorder{}

	NewSquashView(fw).ConfigureSubscriptionParameters(&subscription.Configuration{})

	assert.Equal(t, [][2]string{{"service:req:squash:project", "service/req/squash/"}}, fw.selects)

	// The default widgets write to the configuration.
	cfg := &subscription.Configuration{}
	DefaultSquashView.ConfigureSubscriptionParameters(cfg)

	assert.Equal(t, []subscription.Select2{{Parameter: squash.ParamProject, RestPath: "service/req/squash/"}}, cfg.Selects())
}

func TestDefaultSquashView(t *testing.T) {
	t.Parallel()

	sub := fixture(ptr("Alpha <1>"))
	sub.Parameters[string(i18n.Help)] = "https://help.example.com/squash"

	features := render(t, DefaultSquashView.RenderFeatures(sub))
	link := strings.Index(features, `href="rest/service/req/squash/redirect/42"`)
	help := strings.Index(features, `href="https://help.example.com/squash"`)

	require.GreaterOrEqual(t, link, 0)
	require.Greater(t, help, link, "the help link follows the service link")
	assert.Contains(t, features, `target="_blank"`)

	details := render(t, DefaultSquashView.RenderDetailsKey(sub))
	assert.Contains(t, details, `<div class="item active"><span class="details-label">Name</span>: Alpha &lt;1&gt;</div>`)
	assert.Contains(t, details, `<span data-toggle="tooltip" title="Project">Beta</span>`)
	assert.Less(t, strings.Index(details, ">Project</span>"), strings.Index(details, ">Name</span>"))
}
