package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2024-11-05"

// ToolHandler executes one tool call and returns its text payload.
// Returning an error produces an isError tool result, not a protocol error:
// tool failures must stay inside the tool-result envelope.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// ResourceHandler resolves one resources/read URI for a registered scheme.
type ResourceHandler func(ctx context.Context, uri string) (mimeType, text string, err error)

// PromptHandler generates one prompts/get response.
type PromptHandler func(ctx context.Context, args map[string]string) (*GetPromptResult, error)

// AuditEntry records one handled tool call for the audit log.
type AuditEntry struct {
	Timestamp  string         `json:"timestamp"`
	ToolName   string         `json:"tool_name"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Outcome    string         `json:"outcome"` // "ok" or "error"
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// AuditFunc is a callback invoked for every tools/call the server handles.
type AuditFunc func(entry AuditEntry)

type toolEntry struct {
	def    ToolDefinition
	handle ToolHandler
}

type promptEntry struct {
	def    PromptDefinition
	handle PromptHandler
}

// Server dispatches MCP requests to registered tools, resource schemes,
// and prompts. Registration happens before Serve; the serving loop itself
// is single-reader with a write lock, so handlers may block freely.
type Server struct {
	info ServerInfo

	tools     []toolEntry
	toolIndex map[string]int

	resources       []ResourceDefinition
	resourceSchemes map[string]ResourceHandler

	prompts     []promptEntry
	promptIndex map[string]int

	onAudit AuditFunc
	stderr  io.Writer
}

// NewServer creates an empty MCP server with the given identity.
func NewServer(name, version string) *Server {
	return &Server{
		info:            ServerInfo{Name: name, Version: version},
		toolIndex:       map[string]int{},
		resourceSchemes: map[string]ResourceHandler{},
		promptIndex:     map[string]int{},
		stderr:          os.Stderr,
	}
}

// SetStderr redirects diagnostic output (tests).
func (s *Server) SetStderr(w io.Writer) { s.stderr = w }

// OnAudit installs the audit callback for tool calls.
func (s *Server) OnAudit(fn AuditFunc) { s.onAudit = fn }

// RegisterTool adds a tool. Listing order follows registration order.
func (s *Server) RegisterTool(def ToolDefinition, handler ToolHandler) {
	s.toolIndex[def.Name] = len(s.tools)
	s.tools = append(s.tools, toolEntry{def: def, handle: handler})
}

// RegisterResource advertises a resource example/template in resources/list.
func (s *Server) RegisterResource(def ResourceDefinition) {
	s.resources = append(s.resources, def)
}

// RegisterResourceScheme routes resources/read URIs with the given scheme
// (e.g. "aur" for aur://...) to a handler.
func (s *Server) RegisterResourceScheme(scheme string, handler ResourceHandler) {
	s.resourceSchemes[scheme] = handler
}

// RegisterPrompt adds a templated prompt.
func (s *Server) RegisterPrompt(def PromptDefinition, handler PromptHandler) {
	s.promptIndex[def.Name] = len(s.prompts)
	s.prompts = append(s.prompts, promptEntry{def: def, handle: handler})
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(data []byte) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	_, _ = lw.w.Write(buf)
}

// Serve reads newline-delimited JSON-RPC messages from r and writes
// responses to w until r is exhausted. Notifications get no response;
// unparseable lines yield a parse-error response.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // up to 10MB per message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			resp, _ := newErrorResponse(nil, RPCParseError, "invalid JSON-RPC message")
			out.writeLine(resp)
			continue
		}

		if resp := s.Handle(ctx, &msg); resp != nil {
			out.writeLine(resp)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading client stream: %w", err)
	}
	return nil
}

// Handle processes one parsed message and returns the marshaled response,
// or nil for notifications.
func (s *Server) Handle(ctx context.Context, msg *Message) []byte {
	// Notification: has method but no id. Nothing to answer.
	if msg.ID == nil && msg.Method != "" {
		return nil
	}
	// Response or garbage directed at us; a server has nothing to do.
	if msg.Method == "" {
		return nil
	}

	result, rpcErr := s.dispatch(ctx, msg)
	if rpcErr != nil {
		resp, err := newErrorResponseObj(msg.ID, rpcErr)
		if err != nil {
			_, _ = fmt.Fprintf(s.stderr, "[mcp] error marshaling error response: %v\n", err)
			return nil
		}
		return resp
	}

	resp, err := newResultResponse(msg.ID, result)
	if err != nil {
		_, _ = fmt.Fprintf(s.stderr, "[mcp] error marshaling response: %v\n", err)
		resp, _ = newErrorResponse(msg.ID, RPCInternalError, "failed to marshal result")
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, msg *Message) (any, *RPCError) {
	switch msg.Method {
	case MethodInitialize:
		return s.initializeResult(), nil
	case MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return s.listTools(), nil
	case MethodToolsCall:
		return s.callTool(ctx, msg.Params)
	case MethodResourcesList:
		return ListResourcesResult{Resources: append([]ResourceDefinition{}, s.resources...)}, nil
	case MethodResourcesRead:
		return s.readResource(ctx, msg.Params)
	case MethodPromptsList:
		return s.listPrompts(), nil
	case MethodPromptsGet:
		return s.getPrompt(ctx, msg.Params)
	default:
		return nil, &RPCError{Code: RPCMethodNotFound, Message: fmt.Sprintf("method not found: %s", msg.Method)}
	}
}

func (s *Server) initializeResult() InitializeResult {
	caps := Capabilities{}
	if len(s.tools) > 0 {
		caps.Tools = &struct{}{}
	}
	if len(s.resources) > 0 || len(s.resourceSchemes) > 0 {
		caps.Resources = &struct{}{}
	}
	if len(s.prompts) > 0 {
		caps.Prompts = &struct{}{}
	}
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      s.info,
	}
}

func (s *Server) listTools() ListToolsResult {
	defs := make([]ToolDefinition, len(s.tools))
	for i, entry := range s.tools {
		defs[i] = entry.def
	}
	return ListToolsResult{Tools: defs}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	if raw == nil {
		return nil, &RPCError{Code: RPCInvalidParams, Message: "tools/call requires params"}
	}
	var params CallToolParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Name == "" {
		return nil, &RPCError{Code: RPCInvalidParams, Message: "tools/call params missing required field 'name'"}
	}

	idx, ok := s.toolIndex[params.Name]
	if !ok {
		return nil, &RPCError{Code: RPCInvalidParams, Message: fmt.Sprintf("unknown tool: %s", params.Name)}
	}

	start := time.Now()
	text, err := s.tools[idx].handle(ctx, params.Arguments)

	if s.onAudit != nil {
		entry := AuditEntry{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			ToolName:   params.Name,
			Arguments:  params.Arguments,
			Outcome:    "ok",
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			entry.Outcome = "error"
			entry.Error = err.Error()
		}
		s.onAudit(entry)
	}

	// Tool failures ride inside the result envelope so the client can show
	// them to the model instead of aborting the session.
	if err != nil {
		return CallToolResult{
			Content: []ContentItem{{Type: "text", Text: "Error: " + err.Error()}},
			IsError: true,
		}, nil
	}
	return CallToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
	}, nil
}

func (s *Server) readResource(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	if raw == nil {
		return nil, &RPCError{Code: RPCInvalidParams, Message: "resources/read requires params"}
	}
	var params ReadResourceParams
	if err := json.Unmarshal(raw, &params); err != nil || params.URI == "" {
		return nil, &RPCError{Code: RPCInvalidParams, Message: "resources/read params missing required field 'uri'"}
	}

	scheme, _, ok := cutScheme(params.URI)
	if !ok {
		return nil, &RPCError{Code: RPCInvalidParams, Message: fmt.Sprintf("malformed resource URI: %s", params.URI)}
	}
	handler, ok := s.resourceSchemes[scheme]
	if !ok {
		return nil, &RPCError{Code: RPCInvalidParams, Message: fmt.Sprintf("unknown resource scheme: %s", scheme)}
	}

	mimeType, text, err := handler(ctx, params.URI)
	if err != nil {
		return nil, &RPCError{Code: RPCInternalError, Message: err.Error()}
	}
	return ReadResourceResult{
		Contents: []ResourceContents{{URI: params.URI, MimeType: mimeType, Text: text}},
	}, nil
}

func (s *Server) listPrompts() ListPromptsResult {
	defs := make([]PromptDefinition, len(s.prompts))
	for i, entry := range s.prompts {
		defs[i] = entry.def
	}
	return ListPromptsResult{Prompts: defs}
}

func (s *Server) getPrompt(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	if raw == nil {
		return nil, &RPCError{Code: RPCInvalidParams, Message: "prompts/get requires params"}
	}
	var params GetPromptParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Name == "" {
		return nil, &RPCError{Code: RPCInvalidParams, Message: "prompts/get params missing required field 'name'"}
	}

	idx, ok := s.promptIndex[params.Name]
	if !ok {
		return nil, &RPCError{Code: RPCInvalidParams, Message: fmt.Sprintf("unknown prompt: %s", params.Name)}
	}

	result, err := s.prompts[idx].handle(ctx, params.Arguments)
	if err != nil {
		return nil, &RPCError{Code: RPCInternalError, Message: err.Error()}
	}
	return result, nil
}

// cutScheme splits "aur://yay/info" into ("aur", "yay/info").
func cutScheme(uri string) (scheme, rest string, ok bool) {
	for i := 0; i+2 < len(uri); i++ {
		if uri[i] == ':' {
			if i > 0 && uri[i+1] == '/' && uri[i+2] == '/' {
				return uri[:i], uri[i+3:], true
			}
			return "", "", false
		}
	}
	return "", "", false
}

func newResultResponse(id *json.RawMessage, result any) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{JSONRPC: "2.0", ID: id, Result: raw})
}

func newErrorResponse(id *json.RawMessage, code int, message string) ([]byte, error) {
	return newErrorResponseObj(id, &RPCError{Code: code, Message: message})
}

func newErrorResponseObj(id *json.RawMessage, rpcErr *RPCError) ([]byte, error) {
	return json.Marshal(Message{JSONRPC: "2.0", ID: id, Error: rpcErr})
}
