package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/leaf-label-tools/internal/imaging"
	"github.com/ironsheep/leaf-label-tools/internal/label"
	"github.com/ironsheep/leaf-label-tools/internal/logger"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
)

const component = "server"

// Version is reported in the initialize handshake. The CLI overrides it with
// the build version.
var Version = "0.1.0"

// Options configures a Server.
type Options struct {
	// Params are the pipeline stage constants.
	Params segment.Params

	// Filters are the stages used when a tool call names none.
	Filters segment.Config

	// Approximation is the contour point reduction for labels.
	Approximation label.Approximation

	// OutputDir is the default label directory.
	OutputDir string

	// Logger receives server diagnostics. Nil discards them.
	Logger logger.Logger
}

// Server handles MCP protocol communication for the labeling tools.
//
// Tool calls are handled one at a time; the open catalog is the only state
// kept between calls.
type Server struct {
	opts     Options
	log      logger.Logger
	cache    *imaging.ImageCache
	pipeline *segment.Pipeline
	labeler  *label.Labeler
	batcher  *label.Batcher

	mu      sync.Mutex
	catalog *imaging.Catalog
	ctx     context.Context
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

// New creates a server. Images decoded by tool calls are cached for the
// lifetime of the server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	cache := imaging.NewImageCache()
	pipeline := segment.New(opts.Params, opts.Logger, cache)
	labeler := label.NewLabeler(pipeline, label.Encoder{Approximation: opts.Approximation}, opts.Logger)

	return &Server{
		opts:     opts,
		log:      opts.Logger,
		cache:    cache,
		pipeline: pipeline,
		labeler:  labeler,
		batcher:  label.NewBatcher(labeler, opts.Logger),
		ctx:      context.Background(),
	}
}

// Run serves requests from stdin and writes responses to stdout until stdin
// closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
// It returns when r reaches EOF or ctx is cancelled, even while r is idle.
// Cancelling ctx also stops a running label_all between images.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.ctx = ctx

	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	// The reader goroutine may stay blocked in Read after cancellation; it
	// exits with the process or when r is closed.
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			s.log.Debug(component, "server stopped", nil)
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			line = l
		}

		if ctx.Err() != nil {
			return nil
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warning(component, "failed to parse request", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error(component, fmt.Errorf("failed to encode response: %w", err), nil)
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
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
				"name":    "leaflabel",
				"version": Version,
			},
		},
	}
}
