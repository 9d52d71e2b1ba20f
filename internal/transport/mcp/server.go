// Package mcp serves the query tools as a Model Context Protocol server over
// newline-delimited JSON-RPC 2.0 on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	toolsuc "github.com/lspl/gradereco/internal/usecase/tools"
)

const (
	// ProtocolVersion is the MCP revision spoken by this server.
	ProtocolVersion = "2024-11-05"
	// ServerName identifies the server in the initialize handshake.
	ServerName = "lspl-mcp"

	maxLineBytes = 4 << 20
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// ToolService lists and invokes query tools.
type ToolService interface {
	List() []toolsuc.Tool
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notifications carry no id and get no response.
func (r *request) isNotification() bool { return len(r.ID) == 0 }

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// TextContent is one item of a tools/call result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the tools/call result body.
type CallResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Server answers MCP requests with the tool service.
type Server struct {
	tools   ToolService
	version string
	logger  *zap.Logger
}

// NewServer creates an MCP server.
func NewServer(tools ToolService, version string, logger *zap.Logger) *Server {
	return &Server{tools: tools, version: version, logger: logger}
}

// Serve reads one request per line from in and writes one response per line
// to out until in is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handleLine(ctx, line)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) *response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("malformed request", zap.Error(err))
		return errorResponse(json.RawMessage("null"), codeParseError, "parse error")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, codeInvalidRequest, "invalid request")
	}

	result, rpcErr := s.dispatch(ctx, &req)
	if req.isNotification() {
		return nil
	}
	if rpcErr != nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req *request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]string{"name": ServerName, "version": s.version},
		}, nil
	case "notifications/initialized", "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.tools.List()}, nil
	case "tools/call":
		return s.callTool(ctx, req.Params)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *rpcError) {
	var p callParams
	if len(raw) == 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.Name == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "params must name a tool"}
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	text, err := s.tools.Call(ctx, p.Name, p.Arguments)
	switch {
	case err == nil:
		return CallResult{Content: []TextContent{{Type: "text", Text: text}}}, nil
	case errors.Is(err, domain.ErrValidation):
		return CallResult{Content: []TextContent{{Type: "text", Text: err.Error()}}, IsError: true}, nil
	default:
		s.logger.Error("tool call failed", zap.String("tool", p.Name), zap.Error(err))
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}
}

func errorResponse(id json.RawMessage, code int, msg string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}
