package bsky

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures the last request seen by a fake XRPC service.
type recorder struct {
	method string
	path   string
	query  url.Values
	auth   string
	ctype  string
	body   map[string]any
}

func newFakeService(t *testing.T, status int, reply string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.auth = r.Header.Get("Authorization")
		rec.ctype = r.Header.Get("Content-Type")
		rec.body = nil
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestGetProfile(t *testing.T) {
	srv, rec := newFakeService(t, http.StatusOK, `{"did":"did:plc:abc","handle":"alice.test","followersCount":12}`)
	c := New(srv.URL, "tok", srv.Client())

	out, err := c.GetProfile(context.Background(), "alice.test")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/xrpc/app.bsky.actor.getProfile", rec.path)
	assert.Equal(t, "alice.test", rec.query.Get("actor"))
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, "application/json", rec.ctype)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice.test", m["handle"])
	assert.Equal(t, json.Number("12"), m["followersCount"])
}

func TestLimitDefaultsAndClamp(t *testing.T) {
	srv, rec := newFakeService(t, http.StatusOK, `{"feed":[]}`)
	c := New(srv.URL, "tok", srv.Client())
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"author feed default", func() error {
			_, err := c.GetAuthorFeed(ctx, AuthorFeedParams{Actor: "a"})
			return err
		}, "10"},
		{"author feed clamp", func() error {
			_, err := c.GetAuthorFeed(ctx, AuthorFeedParams{Actor: "a", Limit: 1000})
			return err
		}, "100"},
		{"timeline default", func() error {
			_, err := c.GetTimeline(ctx, TimelineParams{})
			return err
		}, "50"},
		{"timeline clamp", func() error {
			_, err := c.GetTimeline(ctx, TimelineParams{Limit: 1000})
			return err
		}, "100"},
		{"search default", func() error {
			_, err := c.SearchPosts(ctx, SearchPostsParams{Q: "go"})
			return err
		}, "10"},
		{"search clamp", func() error {
			_, err := c.SearchPosts(ctx, SearchPostsParams{Q: "go", Limit: 1000})
			return err
		}, "100"},
		{"search passthrough", func() error {
			_, err := c.SearchPosts(ctx, SearchPostsParams{Q: "go", Limit: 42})
			return err
		}, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			assert.Equal(t, tt.want, rec.query.Get("limit"))
		})
	}
}

func TestSearchPostsQuery(t *testing.T) {
	srv, rec := newFakeService(t, http.StatusOK, `{"posts":[]}`)
	c := New(srv.URL, "tok", srv.Client())

	_, err := c.SearchPosts(context.Background(), SearchPostsParams{
		Q:      "golang",
		Author: "alice.test",
		Tag:    []string{"go", " ", "atproto"},
		Cursor: "c1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/xrpc/app.bsky.feed.searchPosts", rec.path)
	assert.Equal(t, "golang", rec.query.Get("q"))
	assert.Equal(t, "latest", rec.query.Get("sort"))
	assert.Equal(t, "alice.test", rec.query.Get("author"))
	assert.Equal(t, "go,atproto", rec.query.Get("tag"))
	assert.Equal(t, "c1", rec.query.Get("cursor"))
	assert.False(t, rec.query.Has("lang"))
}

func TestCreateRecordBody(t *testing.T) {
	srv, rec := newFakeService(t, http.StatusOK, `{"uri":"at://did:plc:abc/app.bsky.feed.post/1","cid":"bafy"}`)
	c := New(srv.URL, "tok", srv.Client())
	record := map[string]any{"$type": "app.bsky.feed.post", "text": "hello"}

	_, err := c.CreateRecord(context.Background(), CreateRecordParams{
		Repo: "did:plc:abc", Collection: "app.bsky.feed.post", Record: record,
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/xrpc/com.atproto.repo.createRecord", rec.path)
	assert.Equal(t, true, rec.body["validate"])
	assert.Equal(t, "hello", rec.body["record"].(map[string]any)["text"])
	assert.NotContains(t, rec.body, "rkey")
	assert.NotContains(t, rec.body, "swapCommit")

	off := false
	_, err = c.CreateRecord(context.Background(), CreateRecordParams{
		Repo: "did:plc:abc", Collection: "app.bsky.feed.post", Record: record,
		Rkey: "self", Validate: &off, SwapCommit: "bafyc",
	})
	require.NoError(t, err)
	assert.Equal(t, false, rec.body["validate"])
	assert.Equal(t, "self", rec.body["rkey"])
	assert.Equal(t, "bafyc", rec.body["swapCommit"])
}

func TestRemoteError(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusBadRequest, `{"error":"InvalidSwap","message":"Commit was at bafyz"}`)
	c := New(srv.URL, "tok", srv.Client())

	_, err := c.CreateRecord(context.Background(), CreateRecordParams{Repo: "r", Collection: "c", SwapCommit: "x"})
	var rerr *RemoteServiceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadRequest, rerr.Status)
	assert.Equal(t, "InvalidSwap", rerr.Code)
	assert.Contains(t, err.Error(), "Commit was at bafyz")
}

func TestMalformedJSON(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusOK, `not json`)
	c := New(srv.URL, "tok", srv.Client())

	_, err := c.GetTimeline(context.Background(), TimelineParams{})
	var rerr *RemoteServiceError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, err.Error(), "decode response")
}

func TestNoSession(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := New(srv.URL, "", srv.Client()).GetProfile(context.Background(), "alice.test")
	assert.True(t, errors.Is(err, ErrNoSession))
	assert.False(t, called)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, ClampLimit(0, 10))
	assert.Equal(t, 10, ClampLimit(-5, 10))
	assert.Equal(t, 1, ClampLimit(1, 10))
	assert.Equal(t, 100, ClampLimit(100, 10))
	assert.Equal(t, 100, ClampLimit(101, 10))
}

func TestRemoteErrorStatusTextFallback(t *testing.T) {
	srv, _ := newFakeService(t, http.StatusBadGateway, `<html>upstream down</html>`)
	c := New(srv.URL, "tok", srv.Client())

	_, err := c.GetProfile(context.Background(), "alice.test")
	var rerr *RemoteServiceError
	require.ErrorAs(t, err, &rerr)
	assert.Empty(t, rerr.Code)
	assert.Contains(t, err.Error(), "502 Bad Gateway")
}
