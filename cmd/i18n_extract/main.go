// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
i18n_extract regenerates po/squash.pot from the typed constants of package
i18n.

Every constant of type i18n.MsgKey becomes a root entry and every constant of
type i18n.ErrorKey an entry of the error context. The declaration and each use
of a constant are listed as references.
*/
package main

import (
	"cmp"
	"flag"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"golang.org/x/tools/go/packages"

	"github.com/ligoj/plugin-req-squash/i18n"
)

var i18nPath = reflect.TypeFor[i18n.MsgKey]().PkgPath()

// contexts maps the key types of package i18n to their msgctxt.
var contexts = map[string]string{
	"MsgKey":   "",
	"ErrorKey": i18n.ErrorContext,
}

type entry struct {
	ctx   string
	msgid string
}

func main() {
	out := flag.String("o", "po/squash.pot", "template to write")
	version := flag.String("version", "dev", "Project-Id-Version of the template")
	flag.Parse()

	root, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax,
	}, "./...")
	if err != nil {
		log.Fatalf("load packages: %v", err)
	}

	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	refs := collect(pkgs, root)

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(*out, []byte(render(refs, *version)), 0o644); err != nil { //nolint:gosec // template is public
		log.Fatal(err)
	}

	log.Printf("wrote %d entries to %s", len(refs), *out)
}

// collect maps each key constant to the file:line positions declaring or
// using it, relative to root.
func collect(pkgs []*packages.Package, root string) map[entry][]string {
	refs := make(map[entry][]string)

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		add := func(obj types.Object, at token.Pos) {
			e, ok := keyOf(obj)
			if !ok {
				return
			}

			pos := p.Fset.Position(at)
			if rel, err := filepath.Rel(root, pos.Filename); err == nil {
				pos.Filename = filepath.ToSlash(rel)
			}

			refs[e] = append(refs[e], fmt.Sprintf("%s:%d", pos.Filename, pos.Line))
		}

		for id, obj := range p.TypesInfo.Defs {
			add(obj, id.Pos())
		}

		for id, obj := range p.TypesInfo.Uses {
			add(obj, id.Pos())
		}
	}

	for e, rs := range refs {
		slices.SortFunc(rs, compareRefs)
		refs[e] = slices.Compact(rs)
	}

	return refs
}

// compareRefs orders file:line references by file, then numerically by line.
func compareRefs(a, b string) int {
	fa, la, _ := strings.Cut(a, ":")
	fb, lb, _ := strings.Cut(b, ":")

	return cmp.Or(cmp.Compare(fa, fb), cmp.Compare(len(la), len(lb)), cmp.Compare(la, lb))
}

// keyOf reports the entry of obj when it is a string constant of one of the
// key types of package i18n.
func keyOf(obj types.Object) (entry, bool) {
	c, ok := obj.(*types.Const)
	if !ok || c.Val().Kind() != constant.String {
		return entry{}, false
	}

	named, ok := c.Type().(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.Obj().Pkg().Path() != i18nPath {
		return entry{}, false
	}

	ctx, ok := contexts[named.Obj().Name()]
	if !ok {
		return entry{}, false
	}

	return entry{ctx, constant.StringVal(c.Val())}, true
}

func render(refs map[entry][]string, version string) string {
	entries := make([]entry, 0, len(refs))
	for e := range refs {
		entries = append(entries, e)
	}

	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.ctx, b.ctx), cmp.Compare(a.msgid, b.msgid))
	})

	var b strings.Builder

	fmt.Fprintf(&b, `msgid ""
msgstr ""
"Project-Id-Version: plugin-req-squash %s\n"
"POT-Creation-Date: %s\n"
"Language: en\n"
"Report-Msgid-Bugs-To: https://github.com/ligoj/plugin-req-squash/issues\n"
"MIME-Version: 1.0\n"
"Content-Type: text/plain; charset=UTF-8\n"
"Content-Transfer-Encoding: 8bit\n"
"Plural-Forms: nplurals=2; plural=(n != 1);\n"
`, version, time.Now().UTC().Format("2006-01-02 15:04-0700"))

	for _, e := range entries {
		fmt.Fprintf(&b, "\n#: %s\n", strings.Join(refs[e], " "))

		if e.ctx != "" {
			fmt.Fprintf(&b, "msgctxt %q\n", e.ctx)
		}

		fmt.Fprintf(&b, "msgid %q\nmsgstr \"\"\n", e.msgid)
	}

	return b.String()
}
