// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package partials

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/ligoj/plugin-req-squash/assets/components/fragments"
	"github.com/ligoj/plugin-req-squash/core/squash"
	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/i18n"
)

// redirectPath is resolved against the console's base URL.
const redirectPath = "rest/" + squash.RestPath + "redirect/"

// detailsStart is the slide the details carousel opens on.
const detailsStart = 1

// Framework is the widget framework a service view renders through.
type Framework interface {
	RenderKey(sub *subscription.Subscription, key i18n.MsgKey) templ.Component
	RenderServiceLink(icon, href string, title i18n.MsgKey, text string, attrs templ.Attributes) templ.Component
	RenderServiceHelpLink(params map[string]string, key i18n.MsgKey) templ.Component
	GenerateCarousel(sub *subscription.Subscription, items []fragments.CarouselItem, start int) templ.Component
	RegisterXServiceSelect2(cfg *subscription.Configuration, key i18n.MsgKey, restPath string)
}

// SquashView renders Squash TM subscriptions.
type SquashView struct {
	fw Framework
}

// NewSquashView returns a view rendering through fw.
func NewSquashView(fw Framework) *SquashView {
	return &SquashView{fw: fw}
}

// DefaultSquashView renders through the console's default widgets.
var DefaultSquashView = NewSquashView(fragments.Widgets{})

// RenderKey renders the subscribed project.
func (v *SquashView) RenderKey(sub *subscription.Subscription) templ.Component {
	return v.fw.RenderKey(sub, squash.ParamProject)
}

// RenderFeatures renders the link opening the project in Squash TM, then the
// help link.
func (v *SquashView) RenderFeatures(sub *subscription.Subscription) templ.Component {
	return templ.Join(
		v.fw.RenderServiceLink("home", redirectPath+strconv.Itoa(sub.ID), squash.ParamProject, "",
			templ.Attributes{"target": "_blank"}),
		v.fw.RenderServiceHelpLink(sub.Parameters, i18n.Help),
	)
}

// RenderDetailsKey renders the project key and the project name. The name
// falls back to the project parameter when the project has not been fetched.
func (v *SquashView) RenderDetailsKey(sub *subscription.Subscription) templ.Component {
	name := sub.ProjectName()
	if name == "" {
		name = sub.Parameters.Get(squash.ParamProject)
	}

	return v.fw.GenerateCarousel(sub, []fragments.CarouselItem{
		{Label: squash.ParamProject, Value: v.RenderKey(sub)},
		{Label: i18n.Name, Value: fragments.Text(name)},
	}, detailsStart)
}

// ConfigureSubscriptionParameters registers the remote project select.
func (v *SquashView) ConfigureSubscriptionParameters(cfg *subscription.Configuration) {
	v.fw.RegisterXServiceSelect2(cfg, squash.ParamProject, squash.RestPath)
}
