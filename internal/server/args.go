package server

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bsky-mcp/internal/bsky"
)

// argReader reads typed values out of a tool's argument map. The first
// failure is kept in err and later reads become no-ops.
type argReader struct {
	args map[string]any
	err  error
}

func (r *argReader) fail(format string, a ...any) {
	if r.err == nil {
		r.err = &InvalidRequestError{Message: fmt.Sprintf(format, a...)}
	}
}

func (r *argReader) lookup(key string) (any, bool) {
	v, ok := r.args[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *argReader) requiredString(key string) string {
	s := r.optionalString(key)
	if r.err == nil && strings.TrimSpace(s) == "" {
		r.fail("missing required argument: %s", key)
	}
	return s
}

func (r *argReader) optionalString(key string) string {
	v, ok := r.lookup(key)
	if !ok || r.err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	r.fail("argument %s must be a string", key)
	return ""
}

// integer returns 0 when the argument is absent; numeric strings are accepted.
func (r *argReader) integer(key string) int {
	v, ok := r.lookup(key)
	if !ok || r.err != nil {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		return t
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			r.fail("argument %s must be a number", key)
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			r.fail("argument %s must be a number", key)
			return 0
		}
		f = n
	default:
		r.fail("argument %s must be a number", key)
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.fail("argument %s must be a number", key)
		return 0
	}
	// Only limits are read as integers; anything past MaxLimit is clamped
	// to it downstream, so saturating here just keeps int(f) well defined.
	if f > bsky.MaxLimit {
		return bsky.MaxLimit + 1
	}
	if f < 0 {
		return 0
	}
	return int(f)
}

// boolean returns nil when the argument is absent.
func (r *argReader) boolean(key string) *bool {
	v, ok := r.lookup(key)
	if !ok || r.err != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return &t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return &b
		}
	}
	r.fail("argument %s must be a boolean", key)
	return nil
}

func (r *argReader) requiredObject(key string) map[string]any {
	v, ok := r.lookup(key)
	if r.err != nil {
		return nil
	}
	if !ok {
		r.fail("missing required argument: %s", key)
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		r.fail("argument %s must be an object", key)
		return nil
	}
	return m
}

// stringList accepts a JSON array of strings or one comma-separated string.
func (r *argReader) stringList(key string) []string {
	v, ok := r.lookup(key)
	if !ok || r.err != nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		return strings.Split(t, ",")
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				r.fail("argument %s must be a list of strings", key)
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	r.fail("argument %s must be a list of strings", key)
	return nil
}

func (r *argReader) oneOf(key, value string, allowed ...string) {
	if r.err != nil || value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	r.fail("argument %s must be one of %s", key, strings.Join(allowed, ", "))
}

func parseProfileArgs(args map[string]any) (string, error) {
	r := argReader{args: args}
	handle := r.requiredString("handle")
	return handle, r.err
}

func parseAuthorPostsArgs(args map[string]any) (bsky.AuthorFeedParams, error) {
	r := argReader{args: args}
	p := bsky.AuthorFeedParams{
		Actor:  r.requiredString("handle"),
		Limit:  r.integer("limit"),
		Cursor: r.optionalString("cursor"),
		Filter: r.optionalString("filter"),
	}
	r.oneOf("filter", p.Filter, "posts_with_replies", "posts_no_replies", "posts_with_media", "posts_and_author_threads")
	return p, r.err
}

func parseCreateRecordArgs(args map[string]any) (bsky.CreateRecordParams, error) {
	r := argReader{args: args}
	p := bsky.CreateRecordParams{
		Repo:       r.requiredString("repo"),
		Collection: r.requiredString("collection"),
		Record:     r.requiredObject("record"),
		Rkey:       r.optionalString("rkey"),
		Validate:   r.boolean("validate"),
		SwapCommit: r.optionalString("swapCommit"),
	}
	return p, r.err
}

func parseTimelineArgs(args map[string]any) (bsky.TimelineParams, error) {
	r := argReader{args: args}
	p := bsky.TimelineParams{
		Algorithm: r.optionalString("algorithm"),
		Limit:     r.integer("limit"),
		Cursor:    r.optionalString("cursor"),
	}
	return p, r.err
}

func parseSearchPostsArgs(args map[string]any) (bsky.SearchPostsParams, error) {
	r := argReader{args: args}
	p := bsky.SearchPostsParams{
		Q:        r.requiredString("q"),
		Sort:     r.optionalString("sort"),
		Since:    r.optionalString("since"),
		Until:    r.optionalString("until"),
		Mentions: r.optionalString("mentions"),
		Author:   r.optionalString("author"),
		Lang:     r.optionalString("lang"),
		Domain:   r.optionalString("domain"),
		URL:      r.optionalString("url"),
		Tag:      r.stringList("tag"),
		Limit:    r.integer("limit"),
		Cursor:   r.optionalString("cursor"),
	}
	r.oneOf("sort", p.Sort, "top", "latest")
	return p, r.err
}
