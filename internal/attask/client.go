// Package attask is a thin client for the AtTask (Workfront) REST API.
//
// Every call is one synchronous HTTP round trip. Parameters, including the
// logical method and the API key, travel as a form-encoded POST body; the
// response is a JSON envelope whose "data" member carries the payload.
// Failures are returned immediately: there is no retry or backoff.
package attask

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rshade/attask-archive/internal/logging"
)

// Method is the logical request method sent in the "method" form field.
type Method string

// Logical request methods.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Fixed session paths.
const (
	PathLogin  = "/login"
	PathLogout = "/logout"
)

// Path segments for collection operations.
const (
	pathSearch = "search"
	pathReport = "report"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	envelopeData    = "data"
)

// Client talks to a single API base URL.
type Client struct {
	// BaseURL is the API root, e.g. https://acme.attask-ondemand.com/attask/api/v4.0
	BaseURL string
	// APIKey is attached to every request.
	APIKey string
	// HTTPClient performs the requests. Replaceable for tests.
	HTTPClient *http.Client
	// Diagnostics, when set, receives the pretty-printed JSON body of every
	// failed response before the error is returned.
	Diagnostics io.Writer

	logger zerolog.Logger

	mu        sync.RWMutex
	sessionID string
	userID    string
}

// NewClient creates a client for baseURL. A trailing slash is trimmed.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
}

// WithLogger sets the fallback logger used when the request context carries none.
func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.logger = logging.ComponentLogger(l, "attask")
	return c
}

// WithDiagnostics sets the writer that receives failed response bodies.
func (c *Client) WithDiagnostics(w io.Writer) *Client {
	c.Diagnostics = w
	return c
}

// SessionID returns the id stored by Login, or "".
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// UserID returns the user id stored by Login, or "".
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Login authenticates with username and password and stores the returned
// session and user ids. A rejected login is returned as an *APIError.
func (c *Client) Login(ctx context.Context, username, password string) error {
	data, err := c.Request(ctx, PathLogin, Params{"username": username, "password": password}, MethodGet, nil)
	if err != nil {
		return err
	}
	obj, err := asObject(data, PathLogin)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = stringField(obj, "sessionID")
	c.userID = stringField(obj, "userID")
	return nil
}

// Logout ends the session. The stored ids are cleared whatever the server says.
func (c *Client) Logout(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.sessionID, c.userID = "", ""
		c.mu.Unlock()
	}()
	_, err := c.Request(ctx, PathLogout, nil, MethodGet, nil)
	return err
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, objCode ObjCode, id string, fields []string) (map[string]any, error) {
	path := recordPath(objCode, id)
	data, err := c.Request(ctx, path, nil, MethodGet, fields)
	if err != nil {
		return nil, err
	}
	return asObject(data, path)
}

// GetList fetches several records by id in a single request.
func (c *Client) GetList(ctx context.Context, objCode ObjCode, ids []string, fields []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	path := collectionPath(objCode)
	data, err := c.Request(ctx, path, Params{ParamIDs: strings.Join(ids, ",")}, MethodGet, fields)
	if err != nil {
		return nil, err
	}
	return asList(data, path)
}

// Post creates a record and returns the server's representation of it.
func (c *Client) Post(ctx context.Context, objCode ObjCode, params Params, fields []string) (map[string]any, error) {
	path := collectionPath(objCode)
	data, err := c.Request(ctx, path, params, MethodPost, fields)
	if err != nil {
		return nil, err
	}
	return asObject(data, path)
}

// Put updates a record and returns the updated representation.
func (c *Client) Put(ctx context.Context, objCode ObjCode, id string, params Params, fields []string) (map[string]any, error) {
	path := recordPath(objCode, id)
	data, err := c.Request(ctx, path, params, MethodPut, fields)
	if err != nil {
		return nil, err
	}
	return asObject(data, path)
}

// Delete removes a record. force allows deleting records that others depend
// on, e.g. a project that still has tasks.
func (c *Client) Delete(ctx context.Context, objCode ObjCode, id string, force bool) (any, error) {
	return c.Request(ctx, recordPath(objCode, id), Params{ParamForce: force}, MethodDelete, nil)
}

// Search queries a collection. Criteria pair field names with values; a
// "<field>_Mod" entry chooses the comparison operator and $$LIMIT caps the page.
func (c *Client) Search(ctx context.Context, objCode ObjCode, params Params, fields []string) ([]map[string]any, error) {
	path := collectionPath(objCode) + "/" + pathSearch
	data, err := c.Request(ctx, path, params, MethodGet, fields)
	if err != nil {
		return nil, err
	}
	return asList(data, path)
}

// Report runs a server-side aggregate over the records matching params.
// aggFunc (sum, count, dcount, ...) is applied to ID unless params already
// name an aggregate; the result is keyed "<aggFunc>_ID".
func (c *Client) Report(ctx context.Context, objCode ObjCode, params Params, aggFunc string) (map[string]any, error) {
	path := collectionPath(objCode) + "/" + pathReport
	p := params.Clone()
	if _, ok := p[ParamAggFunc]; !ok && aggFunc != "" {
		p[ParamAggFunc] = aggFunc
	}
	data, err := c.Request(ctx, path, p, MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return asObject(data, path)
}

// Action invokes a named operation. With an empty id the action addresses the
// whole collection, which some bulk operations require.
func (c *Client) Action(
	ctx context.Context,
	objCode ObjCode,
	action string,
	params Params,
	fields []string,
	id string,
) (any, error) {
	path := collectionPath(objCode)
	if id != "" {
		path = recordPath(objCode, id)
	}
	p := params.Clone()
	p[ParamAction] = action
	return c.Request(ctx, path, p, MethodPut, fields)
}

// Bulk applies a list of per-record update descriptors in one call.
func (c *Client) Bulk(ctx context.Context, objCode ObjCode, updates []map[string]any, fields []string) (any, error) {
	return c.Request(ctx, collectionPath(objCode), Params{ParamUpdates: updates}, MethodPut, fields)
}

// Request performs a call and returns the "data" member of the response.
func (c *Client) Request(ctx context.Context, path string, params Params, method Method, fields []string) (any, error) {
	envelope, err := c.RequestRaw(ctx, path, params, method, fields)
	if err != nil {
		return nil, err
	}
	data, ok := envelope[envelopeData]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoData, path)
	}
	return data, nil
}

// RequestRaw performs a call and returns the whole response envelope.
//
// params is not modified. The logical method, the API key and the optional
// fields list are merged into a copy which is sent as a form-encoded POST body.
func (c *Client) RequestRaw(
	ctx context.Context,
	path string,
	params Params,
	method Method,
	fields []string,
) (map[string]any, error) {
	log := c.log(ctx)

	p := params.Clone()
	p[ParamMethod] = string(method)
	p[ParamAPIKey] = c.APIKey
	if len(fields) > 0 {
		p[ParamFields] = strings.Join(fields, ",")
	}

	body, err := p.Encode()
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("Accept", "application/json")

	log.Debug().
		Ctx(ctx).
		Str("operation", "request").
		Str("path", path).
		Str("method", string(method)).
		Int("params", len(params)).
		Msg("sending api request")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, c.fail(ctx, path, 0, nil, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, readErr := io.ReadAll(resp.Body)
		cause := errors.New(resp.Status)
		if readErr != nil {
			cause = errors.Join(cause, fmt.Errorf("reading error body: %w", readErr))
		}
		return nil, c.fail(ctx, path, resp.StatusCode, raw, cause)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var envelope map[string]any
	if err = dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", path, err)
	}

	log.Debug().
		Ctx(ctx).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api request succeeded")

	return envelope, nil
}

// fail logs and surfaces a failed response body, then builds the APIError.
func (c *Client) fail(ctx context.Context, path string, status int, raw []byte, cause error) error {
	apiErr := &APIError{StatusCode: status, Path: path, RawBody: raw, Err: cause}

	if len(raw) > 0 && json.Valid(raw) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var parsed any
		if dec.Decode(&parsed) == nil {
			apiErr.Body = parsed
		}
	}

	event := c.log(ctx).Error().
		Ctx(ctx).
		Str("operation", "request").
		Str("path", path).
		Int("status", status).
		Err(cause)
	if apiErr.Body != nil {
		event = event.RawJSON("body", raw)
	}
	event.Msg("api request failed")

	if c.Diagnostics != nil {
		c.writeDiagnostics(apiErr)
	}
	return apiErr
}

// writeDiagnostics prints the error body as indented JSON. Map keys come out
// sorted because encoding/json sorts them.
func (c *Client) writeDiagnostics(apiErr *APIError) {
	if apiErr.Body != nil {
		if pretty, err := json.MarshalIndent(apiErr.Body, "", "    "); err == nil {
			_, _ = fmt.Fprintln(c.Diagnostics, string(pretty))
			return
		}
	}
	if len(apiErr.RawBody) > 0 {
		_, _ = fmt.Fprintln(c.Diagnostics, string(apiErr.RawBody))
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// log prefers the logger carried by ctx.
func (c *Client) log(ctx context.Context) *zerolog.Logger {
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		cl := logging.ComponentLogger(*l, "attask")
		return &cl
	}
	return &c.logger
}

func collectionPath(objCode ObjCode) string {
	return "/" + string(objCode)
}

func recordPath(objCode ObjCode, id string) string {
	return "/" + string(objCode) + "/" + url.PathEscape(id)
}

func asObject(data any, path string) (map[string]any, error) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected object, got %T", ErrUnexpectedShape, path, data)
	}
	return obj, nil
}

func asList(data any, path string) ([]map[string]any, error) {
	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected list, got %T", ErrUnexpectedShape, path, data)
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: item %d is %T", ErrUnexpectedShape, path, i, item)
		}
		out = append(out, obj)
	}
	return out, nil
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
