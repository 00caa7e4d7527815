package server

// Tool describes an MCP tool and its input schema.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema is the JSON Schema object describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single tool argument.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *int      `json:"minimum,omitempty"`
	Maximum     *int      `json:"maximum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// CallRequest is an inbound tool invocation. A nil Args means the caller
// sent no arguments at all.
type CallRequest struct {
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

// Envelope is the uniform tool call result. Failures are carried inside the
// text payload, never as a transport error.
type Envelope struct {
	Content []Content `json:"content"`
}

// Content is one part of an Envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
