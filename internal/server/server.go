package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/maskviz-mcp/internal/config"
	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/metrics"
	"github.com/ironsheep/maskviz-mcp/internal/visualize"
)

// serverName is reported in the initialize handshake.
const serverName = "maskviz-mcp"

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	renderer *visualize.Renderer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	version  string
}

// Options configures a Server. Nil fields get working defaults.
type Options struct {
	Renderer *visualize.Renderer
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Version  string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = visualize.NewRenderer(logger, config.Default().Render, nil)
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Server{
		cache:    imaging.NewImageCache(),
		renderer: renderer,
		logger:   logger,
		metrics:  opts.Metrics,
		version:  version,
	}
}

// Run serves requests from stdin, writing responses to stdout, until stdin
// is closed.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads line-delimited JSON-RPC requests from in and writes one
// response line per request to out. Unparseable lines are logged and
// skipped.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Masks and weight tensors make for large requests.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", zap.Error(err))
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scanner error")
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": s.version,
			},
		},
	}
}

// observe records a finished tool call.
func (s *Server) observe(tool string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.metrics.ObserveTool(tool, elapsed, err)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", tool), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	s.logger.Debug("tool done", zap.String("tool", tool), zap.Duration("elapsed", elapsed))
}
