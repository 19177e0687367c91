package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const apiPrefix = "/attask/api/v4.0"

// apiRequest is one call received by fakeWorkfront.
type apiRequest struct {
	Path string
	Form url.Values
}

// fakeWorkfront is a small in-memory stand-in for the REST API: projects,
// issues that belong to projects, search, report, the move action and login.
type fakeWorkfront struct {
	mu       sync.Mutex
	projects map[string]map[string]any
	issues   map[string]string // issue id -> project id
	order    []string
	requests []apiRequest
	// floatCounts makes report aggregates float-shaped, e.g. 10.0.
	floatCounts bool
}

func newFakeWorkfront(t *testing.T) (*fakeWorkfront, *httptest.Server) {
	t.Helper()
	f := &fakeWorkfront{
		projects: map[string]map[string]any{
			"proj-a": {"ID": "proj-a", "name": "Support Queue", "priority": 2},
			"proj-b": {"ID": "proj-b", "name": "Support Archive", "priority": 3},
		},
		issues: make(map[string]string),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeWorkfront) addIssues(project string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("issue-%04d", len(f.order))
		f.issues[id] = project
		f.order = append(f.order, id)
	}
}

func (f *fakeWorkfront) issuesIn(project string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(project)
}

func (f *fakeWorkfront) calls(path string) []apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiRequest
	for _, r := range f.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeWorkfront) allCalls() []apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiRequest(nil), f.requests...)
}

func (f *fakeWorkfront) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, apiPrefix)
	form := r.PostForm
	f.requests = append(f.requests, apiRequest{Path: path, Form: form})

	switch {
	case path == "/login":
		if form.Get("password") == "wrong" {
			writeAPIError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeAPIData(w, map[string]any{"sessionID": "s-1", "userID": "u-1"})
	case path == "/logout":
		writeAPIData(w, map[string]any{"success": true})
	case path == "/optask/search":
		f.searchIssues(w, form)
	case path == "/optask/report":
		n := f.countLocked(form.Get("projectID"))
		if f.floatCounts {
			writeAPIData(w, map[string]any{"dcount_ID": json.RawMessage(fmt.Sprintf("%d.0", n))})
			return
		}
		writeAPIData(w, map[string]any{"dcount_ID": n})
	case strings.HasPrefix(path, "/optask/"):
		f.issue(w, strings.TrimPrefix(path, "/optask/"), form)
	case path == "/proj":
		f.projectCollection(w, form)
	case strings.HasPrefix(path, "/proj/"):
		f.project(w, strings.TrimPrefix(path, "/proj/"), form)
	default:
		writeAPIError(w, http.StatusNotFound, "no route for "+path)
	}
}

func (f *fakeWorkfront) countLocked(project string) int {
	n := 0
	for _, p := range f.issues {
		if p == project {
			n++
		}
	}
	return n
}

func (f *fakeWorkfront) searchIssues(w http.ResponseWriter, form url.Values) {
	limit, _ := strconv.Atoi(form.Get("$$LIMIT"))
	project := form.Get("projectID")

	out := []map[string]any{}
	for _, id := range f.order {
		if f.issues[id] != project {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, map[string]any{"ID": id, "objCode": "OPTASK", "projectID": project})
	}
	writeAPIData(w, out)
}

func (f *fakeWorkfront) issue(w http.ResponseWriter, id string, form url.Values) {
	if _, ok := f.issues[id]; !ok {
		writeAPIError(w, http.StatusNotFound, "issue not found")
		return
	}
	if form.Get("method") != "PUT" {
		writeAPIData(w, map[string]any{"ID": id, "projectID": f.issues[id]})
		return
	}
	if form.Get("action") == "move" {
		f.issues[id] = form.Get("projectID")
		writeAPIData(w, map[string]any{"success": true})
		return
	}
	writeAPIData(w, userFields(form, map[string]any{"ID": id, "projectID": f.issues[id]}))
}

func (f *fakeWorkfront) projectCollection(w http.ResponseWriter, form url.Values) {
	switch form.Get("method") {
	case "POST":
		id := fmt.Sprintf("proj-new-%d", len(f.projects))
		p := userFields(form, map[string]any{"ID": id})
		f.projects[id] = p
		writeAPIData(w, p)
	default:
		out := []map[string]any{}
		for _, id := range strings.Split(form.Get("ids"), ",") {
			if p, ok := f.projects[id]; ok {
				out = append(out, p)
			}
		}
		writeAPIData(w, out)
	}
}

func (f *fakeWorkfront) project(w http.ResponseWriter, id string, form url.Values) {
	p, ok := f.projects[id]
	if !ok {
		writeAPIError(w, http.StatusNotFound, "project not found")
		return
	}
	switch form.Get("method") {
	case "DELETE":
		delete(f.projects, id)
		writeAPIData(w, map[string]any{"success": true})
	case "PUT":
		p = userFields(form, p)
		f.projects[id] = p
		writeAPIData(w, p)
	default:
		writeAPIData(w, p)
	}
}

// userFields copies the non-protocol form values over base.
func userFields(form url.Values, base map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(form))
	for k, v := range base {
		out[k] = v
	}
	for k := range form {
		switch k {
		case "method", "apiKey", "fields", "action":
			continue
		}
		out[k] = form.Get(k)
	}
	return out
}

func writeAPIData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": msg}})
}

// cmdResult is the captured outcome of one CLI invocation.
type cmdResult struct {
	Stdout string
	Stderr string
	Err    error
}

// runCLI executes the root command against srv with the given stdin.
// extraEnv entries override the defaults; an empty value removes a default.
func runCLI(t *testing.T, srv *httptest.Server, stdin string, extraEnv map[string]string, args ...string) cmdResult {
	t.Helper()

	env := map[string]string{
		"ATTASK_API_KEY":   "key-123",
		"ATTASK_LOG_LEVEL": "warn",
	}
	if srv != nil {
		env["ATTASK_BASE_URL"] = srv.URL + apiPrefix + "/"
	}
	for k, v := range extraEnv {
		if v == "" {
			delete(env, k)
			continue
		}
		env[k] = v
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cmd := NewRootCmdWithArgs("test", []string{"attask-archive"}, lookup)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return cmdResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// withTTY makes Confirm behave as if stdin were (or were not) a terminal.
func withTTY(t *testing.T, tty bool) {
	t.Helper()
	prev := isInteractive
	isInteractive = func() bool { return tty }
	t.Cleanup(func() { isInteractive = prev })
}

// paths lists the request paths in order.
func paths(reqs []apiRequest) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Path
	}
	return out
}

// hasAction reports whether any request carried the given action.
func hasAction(reqs []apiRequest, action string) bool {
	for _, r := range reqs {
		if r.Form.Get("action") == action {
			return true
		}
	}
	return false
}

// sortedProjectIDs is used to check deletes.
func (f *fakeWorkfront) sortedProjectIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.projects))
	for id := range f.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
