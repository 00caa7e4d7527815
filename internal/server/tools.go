package server

import "bsky-mcp/internal/bsky"

// Tool names.
const (
	ToolGetProfile     = "bsky_get_profile"
	ToolGetAuthorPosts = "bsky_get_author_posts"
	ToolCreateRecord   = "bsky_create_record"
	ToolGetTimeline    = "bsky_get_timeline"
	ToolSearchPosts    = "bsky_search_posts"
)

// Tools returns the fixed list of tool descriptors. Each call builds a fresh
// slice so callers cannot mutate the shared definitions.
func Tools() []Tool {
	return []Tool{
		{
			Name:        ToolGetProfile,
			Description: "Get the profile of a Bluesky account by handle or DID",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"handle": {Type: "string", Description: "Account handle (e.g. alice.bsky.social) or DID"},
				},
				Required: []string{"handle"},
			},
		},
		{
			Name:        ToolGetAuthorPosts,
			Description: "List recent posts authored by a Bluesky account",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"handle": {Type: "string", Description: "Account handle or DID"},
					"limit":  limitProperty(bsky.DefaultAuthorFeedLimit),
					"cursor": {Type: "string", Description: "Pagination cursor from a previous call"},
					"filter": {
						Type:        "string",
						Description: "Which kinds of posts to include",
						Enum:        []string{"posts_with_replies", "posts_no_replies", "posts_with_media", "posts_and_author_threads"},
					},
				},
				Required: []string{"handle"},
			},
		},
		{
			Name:        ToolCreateRecord,
			Description: "Create a record (post, like, follow, ...) in a repository collection",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"repo":       {Type: "string", Description: "Handle or DID of the repository"},
					"collection": {Type: "string", Description: "NSID of the record collection (e.g. app.bsky.feed.post)"},
					"record":     {Type: "object", Description: "Record value, including its $type"},
					"rkey":       {Type: "string", Description: "Record key; generated by the server when omitted"},
					"validate":   {Type: "boolean", Description: "Validate the record against its lexicon", Default: true},
					"swapCommit": {Type: "string", Description: "Fail unless the repository head is this commit CID"},
				},
				Required: []string{"repo", "collection", "record"},
			},
		},
		{
			Name:        ToolGetTimeline,
			Description: "Get the home timeline of the authenticated account",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"algorithm": {Type: "string", Description: "Timeline algorithm variant"},
					"limit":     limitProperty(bsky.DefaultTimelineLimit),
					"cursor":    {Type: "string", Description: "Pagination cursor from a previous call"},
				},
			},
		},
		{
			Name:        ToolSearchPosts,
			Description: "Search Bluesky posts",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"q":        {Type: "string", Description: "Search query"},
					"sort":     {Type: "string", Enum: []string{"top", "latest"}, Default: bsky.DefaultSearchSort},
					"since":    {Type: "string", Description: "Only posts at or after this datetime or date"},
					"until":    {Type: "string", Description: "Only posts before this datetime or date"},
					"mentions": {Type: "string", Description: "Only posts mentioning this account"},
					"author":   {Type: "string", Description: "Only posts by this account"},
					"lang":     {Type: "string", Description: "Only posts in this language"},
					"domain":   {Type: "string", Description: "Only posts linking to this domain"},
					"url":      {Type: "string", Description: "Only posts linking to this URL"},
					"tag":      {Type: "array", Description: "Only posts with all of these hashtags (without #)", Items: &Property{Type: "string"}},
					"limit":    limitProperty(bsky.DefaultSearchPostsLimit),
					"cursor":   {Type: "string", Description: "Pagination cursor from a previous call"},
				},
				Required: []string{"q"},
			},
		},
	}
}

func limitProperty(def int) Property {
	lo, hi := 1, bsky.MaxLimit
	return Property{
		Type:        "integer",
		Description: "Maximum number of results",
		Default:     def,
		Minimum:     &lo,
		Maximum:     &hi,
	}
}
