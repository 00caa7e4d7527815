// Package bsky provides a minimal client for the Bluesky XRPC API.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	getProfileNSID    = "app.bsky.actor.getProfile"
	getAuthorFeedNSID = "app.bsky.feed.getAuthorFeed"
	createRecordNSID  = "com.atproto.repo.createRecord"
	getTimelineNSID   = "app.bsky.feed.getTimeline"
	searchPostsNSID   = "app.bsky.feed.searchPosts"
)

// Limits applied to list endpoints.
const (
	MaxLimit                = 100
	DefaultAuthorFeedLimit  = 10
	DefaultTimelineLimit    = 50
	DefaultSearchPostsLimit = 10
	DefaultSearchSort       = "latest"
)

// Client is a minimal HTTP client for authenticated XRPC calls. It holds an
// immutable host and credential pair.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

// New returns a new client. If httpClient is nil, a default with 30s timeout is used.
func New(baseURL, accessJwt string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient, token: accessJwt}
}

// AuthorFeedParams are the inputs of GetAuthorFeed.
type AuthorFeedParams struct {
	Actor  string
	Limit  int
	Cursor string
	Filter string
}

// CreateRecordParams are the inputs of CreateRecord. A nil Validate sends true.
type CreateRecordParams struct {
	Repo       string
	Collection string
	Record     map[string]any
	Rkey       string
	Validate   *bool
	SwapCommit string
}

// TimelineParams are the inputs of GetTimeline.
type TimelineParams struct {
	Algorithm string
	Limit     int
	Cursor    string
}

// SearchPostsParams are the inputs of SearchPosts.
type SearchPostsParams struct {
	Q        string
	Sort     string
	Since    string
	Until    string
	Mentions string
	Author   string
	Lang     string
	Domain   string
	URL      string
	Tag      []string
	Limit    int
	Cursor   string
}

// GetProfile fetches the profile view of an actor (handle or DID).
func (c *Client) GetProfile(ctx context.Context, actor string) (any, error) {
	q := url.Values{}
	q.Set("actor", actor)
	return c.query(ctx, getProfileNSID, q)
}

// GetAuthorFeed lists posts authored by an actor.
func (c *Client) GetAuthorFeed(ctx context.Context, p AuthorFeedParams) (any, error) {
	q := url.Values{}
	q.Set("actor", p.Actor)
	q.Set("limit", strconv.Itoa(ClampLimit(p.Limit, DefaultAuthorFeedLimit)))
	setIf(q, "cursor", p.Cursor)
	setIf(q, "filter", p.Filter)
	return c.query(ctx, getAuthorFeedNSID, q)
}

// CreateRecord writes a record into a repository collection. It is not
// idempotent; a SwapCommit mismatch comes back as a RemoteServiceError.
func (c *Client) CreateRecord(ctx context.Context, p CreateRecordParams) (any, error) {
	validate := true
	if p.Validate != nil {
		validate = *p.Validate
	}
	body := map[string]any{
		"repo":       p.Repo,
		"collection": p.Collection,
		"record":     p.Record,
		"validate":   validate,
	}
	if p.Rkey != "" {
		body["rkey"] = p.Rkey
	}
	if p.SwapCommit != "" {
		body["swapCommit"] = p.SwapCommit
	}
	return c.procedure(ctx, createRecordNSID, body)
}

// GetTimeline returns the home timeline of the authenticated account.
func (c *Client) GetTimeline(ctx context.Context, p TimelineParams) (any, error) {
	q := url.Values{}
	setIf(q, "algorithm", p.Algorithm)
	q.Set("limit", strconv.Itoa(ClampLimit(p.Limit, DefaultTimelineLimit)))
	setIf(q, "cursor", p.Cursor)
	return c.query(ctx, getTimelineNSID, q)
}

// SearchPosts runs a post search.
func (c *Client) SearchPosts(ctx context.Context, p SearchPostsParams) (any, error) {
	q := url.Values{}
	q.Set("q", p.Q)
	sort := p.Sort
	if sort == "" {
		sort = DefaultSearchSort
	}
	q.Set("sort", sort)
	setIf(q, "since", p.Since)
	setIf(q, "until", p.Until)
	setIf(q, "mentions", p.Mentions)
	setIf(q, "author", p.Author)
	setIf(q, "lang", p.Lang)
	setIf(q, "domain", p.Domain)
	setIf(q, "url", p.URL)
	if tags := compact(p.Tag); len(tags) > 0 {
		q.Set("tag", strings.Join(tags, ","))
	}
	q.Set("limit", strconv.Itoa(ClampLimit(p.Limit, DefaultSearchPostsLimit)))
	setIf(q, "cursor", p.Cursor)
	return c.query(ctx, searchPostsNSID, q)
}

// ClampLimit substitutes def for non-positive values and caps at MaxLimit.
func ClampLimit(limit, def int) int {
	if limit < 1 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (c *Client) query(ctx context.Context, nsid string, q url.Values) (any, error) {
	endpoint := c.BaseURL + "/xrpc/" + nsid
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, nsid, endpoint, nil)
}

func (c *Client) procedure(ctx context.Context, nsid string, body any) (any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &RemoteServiceError{Endpoint: nsid, Err: fmt.Errorf("encode body: %w", err)}
	}
	return c.do(ctx, http.MethodPost, nsid, c.BaseURL+"/xrpc/"+nsid, payload)
}

func (c *Client) do(ctx context.Context, method, nsid, endpoint string, payload []byte) (any, error) {
	if c.token == "" {
		return nil, ErrNoSession
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &RemoteServiceError{Endpoint: nsid, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &RemoteServiceError{Endpoint: nsid, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Non-JSON error bodies leave xe empty; the status text is reported instead.
		var xe xrpcError
		_ = json.NewDecoder(resp.Body).Decode(&xe)
		return nil, &RemoteServiceError{Endpoint: nsid, Status: resp.StatusCode, Code: xe.Error, Message: xe.Message}
	}
	body, err := decodeJSON(resp)
	if err != nil {
		return nil, &RemoteServiceError{Endpoint: nsid, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return body, nil
}

// decodeJSON decodes an HTTP response body into a generic value, keeping
// numbers as json.Number.
func decodeJSON(resp *http.Response) (any, error) {
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func compact(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
