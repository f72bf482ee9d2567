// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package fragments holds the generic subscription widgets shared by every
service view: parameter keys, service links, help links, detail carousels and
remote select registration.

Components are plain templ.Component values so that they can be composed by
service views and rendered by the routes without knowing their markup.
*/
package fragments

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ligoj/plugin-req-squash/core/subscription"
	"github.com/ligoj/plugin-req-squash/i18n"
)

// CarouselItem is one slide of a details carousel.
type CarouselItem struct {
	Label i18n.MsgKey
	Value templ.Component
}

// Widgets is the default widget framework of the console.
type Widgets struct{}

// Text renders s as escaped text.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))

		return err
	})
}

// RenderKey renders the value of the parameter key, with the localized
// parameter label as tooltip.
func (Widgets) RenderKey(sub *subscription.Subscription, key i18n.MsgKey) templ.Component {
	value := sub.Parameters.Get(key)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span data-toggle="tooltip" title="%s">%s</span>`,
			templ.EscapeString(key.Tr(ctx)), templ.EscapeString(value))

		return err
	})
}

// RenderServiceLink renders an icon link to href. Unsafe targets are replaced
// by templ's failed-sanitization URL.
func (Widgets) RenderServiceLink(icon, href string, title i18n.MsgKey, text string, attrs templ.Attributes) templ.Component {
	target := templ.URL(href)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<a class="feature" href="%s" data-toggle="tooltip" title="%s"`,
			templ.EscapeString(string(target)), templ.EscapeString(title.Tr(ctx))); err != nil {
			return err
		}

		if err := templ.RenderAttributes(ctx, w, attrs); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `><i class="fas fa-%s"></i>`, templ.EscapeString(icon)); err != nil {
			return err
		}

		if text != "" {
			if _, err := io.WriteString(w, " "+templ.EscapeString(text)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</a>")

		return err
	})
}

// RenderServiceHelpLink renders a link to the help page stored under key in
// params. It renders nothing when there is none.
func (widgets Widgets) RenderServiceHelpLink(params map[string]string, key i18n.MsgKey) templ.Component {
	href, ok := params[string(key)]
	if !ok || href == "" {
		return templ.NopComponent
	}

	return widgets.RenderServiceLink("question-circle", href, key, "", templ.Attributes{"target": "_blank"})
}

// GenerateCarousel renders items as the slides of a carousel that opens on
// the slide at index start.
func (Widgets) GenerateCarousel(sub *subscription.Subscription, items []CarouselItem, start int) templ.Component {
	id := "carousel-" + strconv.Itoa(sub.ID)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div id="%s" class="carousel slide" data-interval="false" data-start="%d"><div class="carousel-inner">`,
			id, start); err != nil {
			return err
		}

		for i, item := range items {
			class := "item"
			if i == start {
				class += " active"
			}

			if _, err := fmt.Fprintf(w, `<div class="%s"><span class="details-label">%s</span>: `,
				class, templ.EscapeString(item.Label.Tr(ctx))); err != nil {
				return err
			}

			if item.Value != nil {
				if err := item.Value.Render(ctx, w); err != nil {
					return err
				}
			}

			if _, err := io.WriteString(w, "</div>"); err != nil {
				return err
			}
		}

		_, err := fmt.Fprintf(w, `</div><a class="left carousel-control" href="#%[1]s" data-slide="prev"></a>`+
			`<a class="right carousel-control" href="#%[1]s" data-slide="next"></a></div>`, id)

		return err
	})
}

// RegisterXServiceSelect2 binds a remote select querying restPath to the
// parameter key of the subscription form.
func (Widgets) RegisterXServiceSelect2(cfg *subscription.Configuration, key i18n.MsgKey, restPath string) {
	cfg.RegisterSelect2(key, restPath)
}
