package server

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

func newTestServer() *Server {
	return New(nil, pipeline.DefaultParams())
}

// wireResponse is a response as a client reads it off the stream.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *MCPError       `json:"error"`
}

// serve feeds lines to a fresh server and decodes every response written.
func serve(t *testing.T, lines ...string) []wireResponse {
	t.Helper()
	var out bytes.Buffer
	if err := newTestServer().Serve(strings.NewReader(strings.Join(lines, "\n")), &out); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	dec := json.NewDecoder(&out)
	var responses []wireResponse
	for dec.More() {
		var resp wireResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode response: %v\n%s", err, out.String())
		}
		responses = append(responses, resp)
	}
	return responses
}

func serveOne(t *testing.T, line string) wireResponse {
	t.Helper()
	responses := serve(t, line)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].JSONRPC != "2.0" {
		t.Errorf("jsonrpc: got %q, want 2.0", responses[0].JSONRPC)
	}
	return responses[0]
}

func TestNew(t *testing.T) {
	s := newTestServer()
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.logger == nil {
		t.Fatal("New() did not default the logger")
	}
	if s.defaults != pipeline.DefaultParams() {
		t.Errorf("defaults: got %+v", s.defaults)
	}
}

func TestServe_Initialize(t *testing.T) {
	resp := serveOne(t, `{"jsonrpc":"2.0","id":"init-1","method":"initialize"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.ID != "init-1" {
		t.Errorf("ID: got %v, want init-1", resp.ID)
	}

	var result struct {
		ProtocolVersion string                     `json:"protocolVersion"`
		Capabilities    map[string]json.RawMessage `json:"capabilities"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocolVersion: got %q", result.ProtocolVersion)
	}
	if _, ok := result.Capabilities["tools"]; !ok {
		t.Errorf("capabilities should advertise tools: %v", result.Capabilities)
	}
	if result.ServerInfo.Name != "coloc-tools-mcp" || result.ServerInfo.Version != Version {
		t.Errorf("serverInfo: got %+v", result.ServerInfo)
	}
}

func TestServe_ToolsList(t *testing.T) {
	resp := serveOne(t, `{"jsonrpc":"2.0","id":7,"method":"tools/list"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.ID != float64(7) {
		t.Errorf("ID: got %v (%T), want 7", resp.ID, resp.ID)
	}

	var result struct {
		Tools []struct {
			Name        string          `json:"name"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Tools) != 9 {
		t.Fatalf("expected 9 tools, got %d", len(result.Tools))
	}
	for _, tool := range result.Tools {
		if !strings.HasPrefix(tool.Name, "coloc_") {
			t.Errorf("tool %q is missing the coloc_ prefix", tool.Name)
		}
		if len(tool.InputSchema) == 0 {
			t.Errorf("tool %q has no input schema", tool.Name)
		}
	}
}

func TestServe_Errors(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCode int
		wantData string
	}{
		{
			"unknown method",
			`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
			-32601,
			"",
		},
		{
			"params not an object",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":[1,2]}`,
			-32602,
			"",
		},
		{
			"unknown tool",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"image_load","arguments":{}}}`,
			-32000,
			"unknown tool",
		},
		{
			"empty channel list",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"coloc_match_channels","arguments":{"channels":[]}}}`,
			-32000,
			"",
		},
		{
			"missing mask file",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"coloc_count_objects","arguments":{"mask":"/nonexistent/C2_f1_cp_masks.png"}}}`,
			-32000,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := serveOne(t, tt.line)
			if resp.Error == nil {
				t.Fatalf("expected error, got result %s", resp.Result)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d (%s)", resp.Error.Code, tt.wantCode, resp.Error.Message)
			}
			if resp.ID != float64(1) {
				t.Errorf("ID: got %v, want 1", resp.ID)
			}
			if tt.wantData != "" {
				data, _ := resp.Error.Data.(string)
				if !strings.Contains(data, tt.wantData) {
					t.Errorf("data: got %q, want it to contain %q", data, tt.wantData)
				}
			}
		})
	}
}

func TestServe_ToolCallContent(t *testing.T) {
	resp := serveOne(t, `{"jsonrpc":"2.0","id":"match-1","method":"tools/call","params":{"name":"coloc_match_channels","arguments":{"channels":[`+
		`{"name":"C1","files":["C1_f1.tif","C1_f2.tif"]},`+
		`{"name":"C2","files":["C2_f1.tif"]}]}}}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.ID != "match-1" {
		t.Errorf("ID: got %v, want match-1", resp.ID)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content: got %+v", result.Content)
	}

	var match struct {
		Complete []struct {
			Identifier string `json:"identifier"`
		} `json:"complete"`
		Partial []struct {
			Identifier string `json:"identifier"`
		} `json:"partial"`
	}
	if err := json.Unmarshal([]byte(result.Content[0].Text), &match); err != nil {
		t.Fatalf("content text is not JSON: %v\n%s", err, result.Content[0].Text)
	}
	if len(match.Complete) != 1 || match.Complete[0].Identifier != "f1.tif" {
		t.Errorf("complete: got %+v", match.Complete)
	}
	if len(match.Partial) != 1 || match.Partial[0].Identifier != "f2.tif" {
		t.Errorf("partial: got %+v", match.Partial)
	}
}

func TestServe(t *testing.T) {
	responses := serve(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"coloc_nope","arguments":{}}}`,
	)

	// Blank lines, unparsable lines and notifications get no response.
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	if responses[0].ID != float64(1) || responses[1].ID != float64(2) {
		t.Errorf("unexpected ids %v, %v", responses[0].ID, responses[1].ID)
	}
	if responses[1].Error != nil || string(responses[1].Result) != "{}" {
		t.Errorf("ping: got result %s error %+v", responses[1].Result, responses[1].Error)
	}
	if responses[2].Error == nil || responses[2].Error.Code != -32000 {
		t.Errorf("unknown tool: got error %+v, want code -32000", responses[2].Error)
	}
}
