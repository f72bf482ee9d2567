// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package squash talks to Squash TM instances on behalf of subscriptions.

Squash TM has no token-based API for the pages used here, so every operation
logs in with the form used by browsers and then loads the page it needs within
the same cookie session.
*/
package squash

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/ligoj/plugin-req-squash/core/audit"
	"github.com/ligoj/plugin-req-squash/core/cookie"
	"github.com/ligoj/plugin-req-squash/core/requests"
	"github.com/ligoj/plugin-req-squash/i18n"
)

const (
	// lastVersionPath lists the most recent Squash TM release tag of the public repository.
	lastVersionPath = "/2.0/repositories/nx/squashtest-tm/refs/tags?pagelen=1&q=name~%22squash-tm-%22&sort=-target.date"
	tagPrefix       = "squash-tm-"

	projectsResource = "generic-projects?sEcho=4&iDisplayStart=0&iDisplayLength=100000"
	adminResource    = "administration"
	loginResource    = "login"

	loginAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Project is a Squash TM project as listed by the project administration table.
type Project struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StatusData is the data attached to a healthy subscription.
type StatusData struct {
	Project *Project `json:"project"`
}

// Client performs the plugin's operations. The zero value cannot fetch the
// last released version; use [NewClient].
type Client struct {
	// PublicServer hosts the Squash TM release tags.
	PublicServer string
}

// NewClient returns a client querying publicServer for release tags.
func NewClient(publicServer string) *Client {
	return &Client{PublicServer: strings.TrimSuffix(publicServer, "/")}
}

// ValidateAdminAccess checks that the Squash TM login page answers 2xx, that the
// credentials are accepted and that the account can open the administration
// page. It returns the version shown on that page.
func (c *Client) ValidateAdminAccess(ctx context.Context, params Parameters) (string, error) {
	base := params.baseURL()

	session, err := requests.NewSession(audit.ToSquash)
	if err != nil {
		return "", err
	}

	resp, err := session.Do(ctx, requests.RequestOptions{Method: http.MethodGet, URL: base + loginResource})
	if err != nil || !resp.IsSuccess() {
		if err != nil && requests.IsContextCanceled(err) {
			return "", err
		}

		log.Debug().Err(err).Str("url", base).Int("status", statusOf(resp)).Msg("Squash TM login page is unreachable")

		return "", newValidationError(ParamURL, i18n.ErrSquashConnection)
	}

	ok, err := authenticate(ctx, session, params)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", newValidationError(ParamUser, i18n.ErrSquashLogin)
	}

	resp, err = session.Do(ctx, requests.RequestOptions{Method: http.MethodGet, URL: base + adminResource})
	if err != nil {
		return "", err
	}

	if !resp.IsOK() {
		return "", newValidationError(ParamUser, i18n.ErrSquashAdmin)
	}

	return parseVersion(resp.Body), nil
}

func statusOf(resp *requests.Response) int {
	if resp == nil {
		return 0
	}

	return resp.StatusCode
}

// authenticate posts the login form. Squash TM answers a successful login with
// a redirect away from the login page.
func authenticate(ctx context.Context, session *requests.Session, params Parameters) (bool, error) {
	resp, err := session.Do(ctx, requests.RequestOptions{
		Method: http.MethodPost,
		URL:    params.baseURL() + loginResource,
		Form: url.Values{
			"username": {params.Get(ParamUser)},
			"password": {strings.TrimSpace(params.Get(ParamPassword))},
		},
		Header: http.Header{"Accept": {loginAccept}},
	})
	if err != nil {
		return false, err
	}

	if !resp.IsRedirect() {
		return false, nil
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return false, nil //nolint:nilerr // an unparsable target is a failed login
	}

	return !strings.HasSuffix(strings.TrimSuffix(location.Path, "/"), "/"+loginResource), nil
}

// getResource logs in and loads resource. It returns nil when the login or the
// page load is refused; only transport failures are errors.
func (c *Client) getResource(ctx context.Context, params Parameters, resource string) ([]byte, error) {
	target := params.baseURL() + resource
	scope := params.cacheScope()

	if cached, ok := requests.Lookup(target, scope); ok {
		return cached.Body, nil
	}

	session, err := requests.NewSession(audit.ToSquash)
	if err != nil {
		return nil, err
	}

	ok, err := authenticate(ctx, session, params)
	if err != nil || !ok {
		return nil, err
	}

	resp, err := session.Do(ctx, requests.RequestOptions{
		Method:     http.MethodGet,
		URL:        target,
		CacheScope: scope,
	})
	if err != nil {
		return nil, err
	}

	if !resp.IsOK() {
		return nil, nil
	}

	return resp.Body, nil
}

// Version returns the version shown on the administration page, or "" when
// the page cannot be read.
func (c *Client) Version(ctx context.Context, params Parameters) (string, error) {
	page, err := c.getResource(ctx, params, adminResource)
	if err != nil {
		return "", err
	}

	return parseVersion(page), nil
}

// parseVersion reads the value next to the "Version" label of the administration page.
func parseVersion(page []byte) string {
	if len(page) == 0 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}

	label := doc.Find("label").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "Version"
	}).First()

	return strings.TrimSpace(label.NextFiltered("span").Text())
}

// LastVersion returns the most recent Squash TM release published on the
// public server, or "" when there is none.
func (c *Client) LastVersion(ctx context.Context) (string, error) {
	doc, err := requests.GetJSON(ctx, c.PublicServer+lastVersionPath)
	if err != nil {
		return "", fmt.Errorf("failed to fetch Squash TM tags: %w", err)
	}

	return strings.TrimPrefix(doc.Get("values.0.name").String(), tagPrefix), nil
}

// Projects returns the projects whose name matches criteria. An empty criteria
// returns every project.
func (c *Client) Projects(ctx context.Context, params Parameters, criteria string) ([]Project, error) {
	resource := projectsResource
	if criteria != "" {
		resource += "&sSearch=" + url.QueryEscape(criteria)
	}

	page, err := c.getResource(ctx, params, resource)
	if err != nil {
		return nil, err
	}

	return parseProjects(page), nil
}

// parseProjects reads the "aaData" rows of a DataTables answer.
func parseProjects(page []byte) []Project {
	projects := []Project{}

	gjson.GetBytes(page, "aaData").ForEach(func(_, row gjson.Result) bool {
		id := row.Get("project-id")
		if !id.Exists() {
			id = row.Get("id")
		}

		projects = append(projects, Project{
			ID:   int(id.Int()),
			Name: row.Get("name").String(),
		})

		return true
	})

	return projects
}

// Project returns the project with the given identifier, or nil.
func (c *Client) Project(ctx context.Context, params Parameters, id int) (*Project, error) {
	projects, err := c.Projects(ctx, params, "")
	if err != nil {
		return nil, err
	}

	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], nil
		}
	}

	return nil, nil //nolint:nilnil // absent project is not an error here
}

// ValidateProject checks that the project parameter names an existing project.
// A missing parameter stands for project 0.
func (c *Client) ValidateProject(ctx context.Context, params Parameters) (*Project, error) {
	raw := params.Get(ParamProject)
	if raw == "" {
		raw = "0"
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, newValidationError(ParamProject, i18n.ErrSquashProject, raw)
	}

	project, err := c.Project(ctx, params, id)
	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, newValidationError(ParamProject, i18n.ErrSquashProject, id)
	}

	return project, nil
}

// CheckStatus reports whether the node is up, which is when the administration
// page can be opened. Cached pages of the account are dropped so that the
// next reads reflect the instance as it is now.
func (c *Client) CheckStatus(ctx context.Context, params Parameters) error {
	requests.InvalidateScope(params.cacheScope())

	_, err := c.ValidateAdminAccess(ctx, params)

	return err
}

// CheckSubscriptionStatus validates the subscribed project and returns it as
// the subscription data.
func (c *Client) CheckSubscriptionStatus(ctx context.Context, params Parameters) (StatusData, error) {
	project, err := c.ValidateProject(ctx, params)
	if err != nil {
		return StatusData{}, err
	}

	return StatusData{Project: project}, nil
}

// Link validates the project of a new subscription.
func (c *Client) Link(ctx context.Context, params Parameters) error {
	_, err := c.ValidateProject(ctx, params)

	return err
}

// Redirect returns where to send a user opening the subscribed project, and
// the cookies Squash TM reads to select that project in its requirement tree.
func Redirect(params Parameters) (string, []*http.Cookie) {
	node := "%23RequirementLibrary-" + params.Get(ParamProject)

	return params.baseURL() + "requirement-workspace/", []*http.Cookie{
		{Name: string(cookie.JSTreeOpenCookie), Value: node, Path: "/"},
		{Name: string(cookie.JSTreeSelectCookie), Value: node, Path: "/"},
	}
}
