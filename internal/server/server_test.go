package server

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/scene-relations-mcp/internal/config"
	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

func TestNew(t *testing.T) {
	s := New()
	require.NotNil(t, s)
	assert.NotNil(t, s.cache)
	assert.NotNil(t, s.engine)
	assert.Nil(t, s.generator)
	assert.Equal(t, spatial.DefaultConfig(), s.engine.Config())
	assert.Equal(t, 30*time.Second, s.narrativeTimeout)
}

func TestNew_Options(t *testing.T) {
	engine, err := spatial.New(spatial.Config{DominanceAreaRatio: 0.5, ProximityWidthRatio: 0.2, OverlapIoU: 0.1, OverlapWeight: 10, MaxPairs: 3})
	require.NoError(t, err)

	gen := &stubGenerator{text: "ok"}
	s := New(
		WithEngine(engine),
		WithGenerator(gen),
		WithMinConfidence(0.4),
		WithNarrativeTimeout(time.Second),
		WithVersion("1.2.3"),
		WithDebug(true),
		WithCacheSize(2),
	)
	assert.Same(t, engine, s.engine)
	assert.Same(t, gen, s.generator)
	assert.Equal(t, 0.4, s.minConfidence)
	assert.Equal(t, time.Second, s.narrativeTimeout)
	assert.Equal(t, "1.2.3", s.version)
	assert.True(t, s.debug)
	assert.NotNil(t, s.cache)
	assert.Zero(t, s.cache.Len())
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		LogLevel:            "debug",
		GeminiModel:         "gemini-2.5-pro",
		GeminiBaseURL:       "http://localhost",
		NarrativeTimeout:    5 * time.Second,
		MinConfidence:       0.3,
		DominanceAreaRatio:  0.2,
		ProximityWidthRatio: 0.15,
		OverlapIoU:          0.05,
		OverlapWeight:       1000,
		MaxPairs:            5,
	}

	s, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, s.generator, "no API key means no generator")
	assert.Equal(t, 0.2, s.engine.Config().DominanceAreaRatio)
	assert.Equal(t, 5, s.engine.Config().MaxPairs)
	assert.Equal(t, 0.3, s.minConfidence)
	assert.True(t, s.debug)

	cfg.GeminiAPIKey = "key"
	s, err = NewFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.generator)
}

func TestNewFromConfig_InvalidThresholds(t *testing.T) {
	cfg := &config.Config{DominanceAreaRatio: 2, MaxPairs: 15}
	_, err := NewFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine config")
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{"string id", `{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`, "test-1", "tools/list"},
		{"number id", `{"jsonrpc":"2.0","id":42,"method":"ping"}`, float64(42), "ping"},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"initialize"}`, nil, "initialize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			require.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			assert.Equal(t, tt.wantID, req.ID)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, "2.0", req.JSONRPC)
		})
	}
}

func TestMCPResponse_WithError(t *testing.T) {
	s := New()
	resp := s.errorResponse(7, -32601, "Method not found: nope", "")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "result")
	errObj := decoded["error"].(map[string]interface{})
	assert.Equal(t, float64(-32601), errObj["code"])
	assert.Equal(t, "Method not found: nope", errObj["message"])
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := New(WithVersion("0.9.0"))
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, protocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "scene-relations-mcp", info["name"])
	assert.Equal(t, "0.9.0", info["version"])
	assert.Contains(t, result["capabilities"], "tools")
}

func TestHandleRequest_Ping(t *testing.T) {
	s := New()
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: "p", Method: "ping"})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "p", resp.ID)
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := New()
	assert.Nil(t, s.handleRequest(&MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}))
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := New()
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "resources/list")
}

func TestServe(t *testing.T) {
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"scene_relationships","arguments":{"width":900,"height":600,"detections":[{"label":"person","box":[50,100,350,550],"confidence":0.9}]}}}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, New().Serve(strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3, "notification and blank line get no response")

	var resps [3]MCPResponse
	for i, line := range lines {
		require.NoError(t, json.Unmarshal([]byte(line), &resps[i]))
	}
	assert.Equal(t, float64(1), resps[0].ID)
	require.NotNil(t, resps[1].Error)
	assert.Equal(t, -32700, resps[1].Error.Code)
	assert.Equal(t, float64(2), resps[2].ID)
	assert.Nil(t, resps[2].Error)
	assert.Contains(t, lines[2], "A large person dominates the left side.")
}
