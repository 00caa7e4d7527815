package server

// InvalidRequestError reports a malformed tool call: no arguments or an
// argument that fails its schema.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

// UnknownToolError reports a tool name outside the fixed set.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return "Unknown tool: " + e.Name }

var errNoArguments = &InvalidRequestError{Message: "No arguments provided"}
