package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const maxMessageSize = 10 << 20

// NewMCPServer registers every dispatcher tool on an MCP server. Tools are
// advertised with the same schemas returned by Dispatcher.Tools.
func NewMCPServer(name, version string, d *Dispatcher) (*mcpserver.MCPServer, error) {
	s := mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(false))
	for _, tool := range d.Tools() {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encode schema of %s: %w", tool.Name, err)
		}
		toolName := tool.Name
		// mcp-go decodes arguments with float64 numbers; ServeStdio answers
		// tools/call itself to keep them exact.
		s.AddTool(mcp.NewToolWithRawSchema(tool.Name, tool.Description, schema),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return toCallToolResult(d.Dispatch(ctx, CallRequest{Name: toolName, Args: req.GetArguments()})), nil
			})
	}
	return s, nil
}

func toCallToolResult(env Envelope) *mcp.CallToolResult {
	texts := make([]string, 0, len(env.Content))
	for _, c := range env.Content {
		texts = append(texts, c.Text)
	}
	return mcp.NewToolResultText(strings.Join(texts, "\n"))
}

// inbound is the subset of a JSON-RPC message inspected before handing it
// to the MCP server.
type inbound struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type callResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  Envelope        `json:"result"`
}

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes
// responses to out until in is exhausted or ctx is done. Every tools/call
// request is answered by the dispatcher with an envelope, so the caller
// never sees a protocol error for a bad tool call; other methods go to the
// MCP server.
func ServeStdio(ctx context.Context, s *mcpserver.MCPServer, d *Dispatcher, in io.Reader, out io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go readLines(ctx, in, lines, readErr)

	enc := json.NewEncoder(out)
	for {
		var msg []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case msg = <-lines:
		}

		resp := handleLine(ctx, s, d, msg)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// readLines feeds non-empty lines of in to lines. It reports the scanner
// error, or nil at EOF, on errc.
func readLines(ctx context.Context, in io.Reader, lines chan<- []byte, errc chan<- error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		msg := make([]byte, len(line))
		copy(msg, line)
		select {
		case lines <- msg:
		case <-ctx.Done():
			return
		}
	}
	errc <- scanner.Err()
}

func handleLine(ctx context.Context, s *mcpserver.MCPServer, d *Dispatcher, msg []byte) any {
	var req inbound
	if err := json.Unmarshal(msg, &req); err == nil && req.Method == string(mcp.MethodToolsCall) && len(req.ID) > 0 {
		var p callParams
		_ = json.Unmarshal(req.Params, &p) // malformed params dispatch as an empty call
		return callResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  d.Dispatch(ctx, CallRequest{Name: p.Name, Args: decodeArguments(p.Arguments)}),
		}
	}
	if r := s.HandleMessage(ctx, msg); r != nil {
		return r
	}
	return nil
}

// decodeArguments keeps numbers as json.Number. Anything but a JSON object
// counts as no arguments.
func decodeArguments(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil
	}
	return args
}
