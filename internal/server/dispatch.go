package server

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"bsky-mcp/internal/bsky"
)

// Remote is the set of XRPC operations the dispatcher forwards to.
// *bsky.Client implements it.
type Remote interface {
	GetProfile(ctx context.Context, actor string) (any, error)
	GetAuthorFeed(ctx context.Context, p bsky.AuthorFeedParams) (any, error)
	CreateRecord(ctx context.Context, p bsky.CreateRecordParams) (any, error)
	GetTimeline(ctx context.Context, p bsky.TimelineParams) (any, error)
	SearchPosts(ctx context.Context, p bsky.SearchPostsParams) (any, error)
}

type toolHandler func(ctx context.Context, args map[string]any) (any, error)

// Dispatcher maps tool calls onto Remote operations. Dispatch never fails:
// every outcome is encoded in the returned Envelope.
type Dispatcher struct {
	remote   Remote
	logger   *log.Logger
	handlers map[string]toolHandler
}

// NewDispatcher builds a Dispatcher. A nil logger uses the standard logger.
func NewDispatcher(remote Remote, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{remote: remote, logger: logger}
	d.registerToolHandlers()
	return d
}

func (d *Dispatcher) registerToolHandlers() {
	d.handlers = map[string]toolHandler{
		ToolGetProfile:     d.getProfile,
		ToolGetAuthorPosts: d.getAuthorPosts,
		ToolCreateRecord:   d.createRecord,
		ToolGetTimeline:    d.getTimeline,
		ToolSearchPosts:    d.searchPosts,
	}
}

// Tools lists the descriptors of every dispatchable tool.
func (d *Dispatcher) Tools() []Tool { return Tools() }

// Has reports whether name is a dispatchable tool.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Dispatch validates and forwards one tool call.
func (d *Dispatcher) Dispatch(ctx context.Context, req CallRequest) Envelope {
	id := uuid.NewString()
	start := time.Now()
	d.logger.Printf("tool call %s: %s args=%v", id, req.Name, argKeys(req.Args))

	result, err := d.call(ctx, req)
	if err != nil {
		d.logger.Printf("tool call %s: %s failed after %s: %v", id, req.Name, time.Since(start).Round(time.Millisecond), err)
		return errorEnvelope(err)
	}
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		d.logger.Printf("tool call %s: %s encode result: %v", id, req.Name, err)
		return errorEnvelope(err)
	}
	d.logger.Printf("tool call %s: %s ok in %s", id, req.Name, time.Since(start).Round(time.Millisecond))
	return textEnvelope(string(text))
}

func (d *Dispatcher) call(ctx context.Context, req CallRequest) (any, error) {
	if req.Args == nil {
		return nil, errNoArguments
	}
	handler, ok := d.handlers[req.Name]
	if !ok {
		return nil, &UnknownToolError{Name: req.Name}
	}
	return handler(ctx, req.Args)
}

func (d *Dispatcher) getProfile(ctx context.Context, args map[string]any) (any, error) {
	handle, err := parseProfileArgs(args)
	if err != nil {
		return nil, err
	}
	return d.remote.GetProfile(ctx, handle)
}

func (d *Dispatcher) getAuthorPosts(ctx context.Context, args map[string]any) (any, error) {
	p, err := parseAuthorPostsArgs(args)
	if err != nil {
		return nil, err
	}
	return d.remote.GetAuthorFeed(ctx, p)
}

func (d *Dispatcher) createRecord(ctx context.Context, args map[string]any) (any, error) {
	p, err := parseCreateRecordArgs(args)
	if err != nil {
		return nil, err
	}
	return d.remote.CreateRecord(ctx, p)
}

func (d *Dispatcher) getTimeline(ctx context.Context, args map[string]any) (any, error) {
	p, err := parseTimelineArgs(args)
	if err != nil {
		return nil, err
	}
	return d.remote.GetTimeline(ctx, p)
}

func (d *Dispatcher) searchPosts(ctx context.Context, args map[string]any) (any, error) {
	p, err := parseSearchPostsArgs(args)
	if err != nil {
		return nil, err
	}
	return d.remote.SearchPosts(ctx, p)
}

func textEnvelope(text string) Envelope {
	return Envelope{Content: []Content{{Type: "text", Text: text}}}
}

func errorEnvelope(err error) Envelope {
	text, _ := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	return textEnvelope(string(text))
}

// argKeys lists argument names only; values may hold post text.
func argKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
