package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/ironsheep/scene-relations-mcp/internal/config"
	"github.com/ironsheep/scene-relations-mcp/internal/imaging"
	"github.com/ironsheep/scene-relations-mcp/internal/narrative"
	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "scene-relations-mcp"

	// defaultCacheSize bounds how many decoded images stay in memory.
	defaultCacheSize = 16
)

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	engine    *spatial.Engine
	generator narrative.Generator

	minConfidence    float64
	narrativeTimeout time.Duration
	version          string
	debug            bool
}

// Option customizes a Server built by New.
type Option func(*Server)

// WithEngine replaces the default-threshold engine.
func WithEngine(e *spatial.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// WithGenerator enables narrative generation.
func WithGenerator(g narrative.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithMinConfidence sets the default confidence floor applied to detections
// when a tool call does not give one.
func WithMinConfidence(v float64) Option {
	return func(s *Server) { s.minConfidence = v }
}

// WithNarrativeTimeout bounds each call to the generator.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(s *Server) { s.narrativeTimeout = d }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithDebug logs every tool call to stderr.
func WithDebug(debug bool) Option {
	return func(s *Server) { s.debug = debug }
}

// WithCacheSize bounds the decoded image cache. Zero means unbounded.
func WithCacheSize(n int) Option {
	return func(s *Server) { s.cache = imaging.NewImageCache(n) }
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

// New creates a server using the default engine thresholds and no narrative
// generator.
func New(opts ...Option) *Server {
	s := &Server{
		cache:            imaging.NewImageCache(defaultCacheSize),
		engine:           mustDefaultEngine(),
		narrativeTimeout: 30 * time.Second,
		version:          "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func mustDefaultEngine() *spatial.Engine {
	e, err := spatial.New(spatial.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// NewFromConfig builds a server from loaded settings. A Gemini generator is
// wired only when an API key is configured.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Server, error) {
	engineCfg, err := cfg.Engine()
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	engine, err := spatial.New(engineCfg)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithEngine(engine),
		WithMinConfidence(cfg.MinConfidence),
		WithNarrativeTimeout(cfg.NarrativeTimeout),
		WithDebug(cfg.Debug()),
	}
	if cfg.GeminiAPIKey != "" {
		base = append(base, WithGenerator(narrative.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)))
	}
	return New(append(base, opts...)...), nil
}

// Run serves MCP requests from stdin to stdout until stdin closes.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Inline detection lists can make requests large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
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
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
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
