// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package squash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligoj/plugin-req-squash/i18n"
)

func TestMain(m *testing.M) {
	if err := i18n.SetupFS(os.DirFS("../..")); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

const adminPage = `<html><body><div class="about">
<label>Build</label><span>2024-06-01</span>
<label>Version</label><span>7.4.1.RELEASE</span>
</div></body></html>`

const projectsPage = `{"sEcho":"4","iTotalRecords":3,"aaData":[
{"project-id":1,"name":"Alpha","raw-name":"Alpha"},
{"project-id":2,"name":"Beta"},
{"id":3,"name":"Gamma"}]}`

// fakeSquash mimics the Squash TM pages the client uses.
type fakeSquash struct {
	user, password string
	loginStatus    atomic.Int32
	admin          atomic.Bool
	down           atomic.Bool
	logins         atomic.Int32

	mu       sync.Mutex
	searches []string
}

func (f *fakeSquash) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.searches)
}

func (f *fakeSquash) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	authenticated := false
	if c, err := r.Cookie("JSESSIONID"); err == nil && c.Value == "session" {
		authenticated = true
	}

	switch {
	case r.URL.Path == "/squash/login" && r.Method == http.MethodGet:
		if status := int(f.loginStatus.Load()); status != 0 {
			w.WriteHeader(status)

			return
		}

		_, _ = w.Write([]byte("<form/>"))
	case r.URL.Path == "/squash/login" && r.Method == http.MethodPost:
		f.logins.Add(1)

		_ = r.ParseForm()
		if r.PostForm.Get("username") != f.user || r.PostForm.Get("password") != f.password {
			http.Redirect(w, r, "/squash/login?error", http.StatusFound)

			return
		}

		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "session", Path: "/squash"})
		http.Redirect(w, r, "/squash/home-workspace", http.StatusFound)
	case !authenticated:
		http.Redirect(w, r, "/squash/login", http.StatusFound)
	case r.URL.Path == "/squash/administration":
		if !f.admin.Load() {
			w.WriteHeader(http.StatusForbidden)

			return
		}

		_, _ = w.Write([]byte(adminPage))
	case r.URL.Path == "/squash/generic-projects":
		f.mu.Lock()
		f.searches = append(f.searches, r.URL.Query().Get("sSearch"))
		f.mu.Unlock()

		_, _ = w.Write([]byte(projectsPage))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeSquash(t *testing.T) (*fakeSquash, Parameters) {
	t.Helper()

	fake := &fakeSquash{user: "admin", password: "secret"}
	fake.admin.Store(true)

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, Parameters{
		string(ParamURL):      srv.URL + "/squash",
		string(ParamUser):     "admin",
		string(ParamPassword): " secret ",
		string(ParamProject):  "2",
	}
}

func TestValidateAdminAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(f *fakeSquash, p Parameters)
		want    string
		wantErr error
	}{
		{"ok", func(*fakeSquash, Parameters) {}, "7.4.1.RELEASE", nil},
		{"server down", func(f *fakeSquash, _ Parameters) { f.down.Store(true) }, "", ErrUnreachable},
		{"login page without content", func(f *fakeSquash, _ Parameters) { f.loginStatus.Store(http.StatusNoContent) }, "7.4.1.RELEASE", nil},
		{"login page redirects", func(f *fakeSquash, _ Parameters) { f.loginStatus.Store(http.StatusFound) }, "", ErrUnreachable},
		{"no server", func(_ *fakeSquash, p Parameters) { p[string(ParamURL)] = "http://127.0.0.1:1/" }, "", ErrUnreachable},
		{"bad password", func(_ *fakeSquash, p Parameters) { p[string(ParamPassword)] = "nope" }, "", ErrLoginFailed},
		{"not an administrator", func(f *fakeSquash, _ Parameters) { f.admin.Store(false) }, "", ErrNoAdminAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake, params := newFakeSquash(t)
			tt.mutate(fake, params)

			got, err := NewClient("").ValidateAdminAccess(context.Background(), params)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckStatus(t *testing.T) {
	t.Parallel()

	fake, params := newFakeSquash(t)
	client := NewClient("")

	require.NoError(t, client.CheckStatus(context.Background(), params))

	fake.admin.Store(false)
	require.ErrorIs(t, client.CheckStatus(context.Background(), params), ErrNoAdminAccess)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	_, params := newFakeSquash(t)
	client := NewClient("")

	got, err := client.Version(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "7.4.1.RELEASE", got)

	params[string(ParamPassword)] = "wrong"

	got, err = client.Version(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
		want string
	}{
		{"administration page", adminPage, "7.4.1.RELEASE"},
		{"empty page", "", ""},
		{"no label", "<p>Welcome</p>", ""},
		{"label without value", "<label>Version</label><div>x</div>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, parseVersion([]byte(tt.page)))
		})
	}
}

func TestProjects(t *testing.T) {
	t.Parallel()

	fake, params := newFakeSquash(t)
	client := NewClient("")

	projects, err := client.Projects(context.Background(), params, "al pha")
	require.NoError(t, err)
	assert.Equal(t, []Project{{1, "Alpha"}, {2, "Beta"}, {3, "Gamma"}}, projects)
	assert.Equal(t, []string{"al pha"}, fake.Searches())

	params[string(ParamPassword)] = "wrong"

	projects, err = client.Projects(context.Background(), params, "")
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.NotNil(t, projects, "an empty list, not null, is returned")
}

func TestValidateProject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		project string
		want    *Project
		wantArg any
	}{
		{"existing", "2", &Project{2, "Beta"}, nil},
		{"unknown", "9", nil, 9},
		{"missing stands for 0", "", nil, 0},
		{"not a number", "abc", nil, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, params := newFakeSquash(t)
			if tt.project == "" {
				delete(params, string(ParamProject))
			} else {
				params[string(ParamProject)] = tt.project
			}

			got, err := NewClient("").ValidateProject(context.Background(), params)
			if tt.want != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				return
			}

			require.ErrorIs(t, err, ErrProjectNotFound)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []any{tt.wantArg}, verr.Args)
		})
	}
}

func TestCheckSubscriptionStatusAndLink(t *testing.T) {
	t.Parallel()

	_, params := newFakeSquash(t)
	client := NewClient("")

	data, err := client.CheckSubscriptionStatus(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, &Project{2, "Beta"}, data.Project)
	require.NoError(t, client.Link(context.Background(), params))

	params[string(ParamProject)] = "42"
	require.ErrorIs(t, client.Link(context.Background(), params), ErrProjectNotFound)
}

func TestLastVersion(t *testing.T) {
	t.Parallel()

	var body atomic.Value

	body.Store(`{"values":[{"name":"squash-tm-9.1.0.RELEASE"}]}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/repositories/nx/squashtest-tm/refs/tags", r.URL.Path)
		assert.Equal(t, `name~"squash-tm-"`, r.URL.Query().Get("q"))
		assert.Equal(t, "-target.date", r.URL.Query().Get("sort"))

		_, _ = w.Write([]byte(body.Load().(string)))
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")

	got, err := client.LastVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9.1.0.RELEASE", got)

	body.Store(`{"values":[]}`)

	got, err = client.LastVersion(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	target, cookies := Redirect(Parameters{
		string(ParamURL):     "https://squash.example.com/squash",
		string(ParamProject): "7",
	})

	assert.Equal(t, "https://squash.example.com/squash/requirement-workspace/", target)
	require.Len(t, cookies, 2)

	for i, name := range []string{"jstree_open", "jstree_select"} {
		assert.Equal(t, name, cookies[i].Name)
		assert.Equal(t, "%23RequirementLibrary-7", cookies[i].Value)
		assert.Equal(t, "/", cookies[i].Path)
	}
}

func TestValidationErrorMessages(t *testing.T) {
	t.Parallel()

	err := newValidationError(ParamProject, i18n.ErrSquashProject, 9)
	assert.Equal(t, "Project: Project not found (9)", err.Error())

	fr := i18n.WithTag(context.Background(), i18n.Match("fr"))
	assert.Equal(t, "Utilisateur: Echec de l'authentification",
		newValidationError(ParamUser, i18n.ErrSquashLogin).Localize(fr))

	assert.NotErrorIs(t, err, ErrLoginFailed)
	assert.True(t, strings.HasPrefix(ErrUnreachable.Error(), "URL: "))
}
