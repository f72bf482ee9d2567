// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package partials

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ligoj/plugin-req-squash/i18n"
)

type ErrorProps struct {
	StatusCode int

	// Detail is shown below the status text when not empty.
	Detail string
}

// Error renders a standalone error page.
func Error(props ErrorProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		status := http.StatusText(props.StatusCode)

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8"><title>%d %s</title></head>`+
			`<body><main class="error"><h1>%d</h1><p>%s</p>`,
			templ.EscapeString(i18n.TagFrom(ctx).String()), props.StatusCode, templ.EscapeString(status),
			props.StatusCode, templ.EscapeString(status)); err != nil {
			return err
		}

		if props.Detail != "" {
			if _, err := fmt.Fprintf(w, `<pre>%s</pre>`, templ.EscapeString(props.Detail)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</main></body></html>")

		return err
	})
}
