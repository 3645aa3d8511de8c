package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"ns-bridge/internal/ns"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func newTestResourceManager(api ns.API) *ResourceManager {
	return NewResourceManager(api, DefaultConfig(), zap.NewNop().Sugar())
}

func readRequest(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func TestResourceManagerRegisterResources(t *testing.T) {
	rm := newTestResourceManager(&mockAPI{})

	mcpServer := server.NewMCPServer("Test Server", "1.0.0", server.WithResourceCapabilities(true, true))
	if err := rm.RegisterResources(mcpServer); err != nil {
		t.Fatalf("RegisterResources failed: %v", err)
	}
}

func TestResourceManagerResourcesDisabled(t *testing.T) {
	config := DefaultConfig()
	config.EnableResources = false
	rm := NewResourceManager(&mockAPI{}, config, zap.NewNop().Sugar())

	mcpServer := server.NewMCPServer("Test Server", "1.0.0")
	if err := rm.RegisterResources(mcpServer); err != nil {
		t.Fatalf("RegisterResources failed: %v", err)
	}
}

func TestStationResourceThroughServer(t *testing.T) {
	api := &mockAPI{stations: []ns.Station{
		{
			Namen:   ns.StationNames{Lang: "Utrecht Centraal"},
			Code:    "ut",
			UICCode: "8400621",
			Land:    "NL",
		},
	}}
	rm := newTestResourceManager(api)

	mcpServer := server.NewMCPServer("Test Server", "1.0.0", server.WithResourceCapabilities(true, true))
	if err := rm.RegisterResources(mcpServer); err != nil {
		t.Fatalf("RegisterResources failed: %v", err)
	}

	// Read through the server's own dispatch so the registration style is
	// covered too, not just the handler.
	request := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"station://ut"}}`)
	response := mcpServer.HandleMessage(context.Background(), request)

	raw, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}

	if !strings.Contains(string(raw), `"result"`) {
		t.Fatalf("expected a result response, got: %s", raw)
	}
	if !strings.Contains(string(raw), "Utrecht Centraal") {
		t.Errorf("expected rendered station in response, got: %s", raw)
	}
	if len(api.stationCalls) != 1 {
		t.Errorf("expected the station lookup to reach the API once, got %d calls", len(api.stationCalls))
	}
}

func TestStationResource(t *testing.T) {
	api := &mockAPI{stations: []ns.Station{
		{
			Namen:   ns.StationNames{Lang: "Utrecht Maliebaan"},
			Code:    "utm",
			UICCode: "8400622",
			Land:    "NL",
		},
		{
			Namen:   ns.StationNames{Lang: "Utrecht Centraal"},
			Code:    "UT",
			UICCode: "8400621",
			Lat:     52.089199,
			Lng:     5.110168,
			Land:    "NL",
		},
	}}
	rm := newTestResourceManager(api)

	contents, err := rm.handleStationResource(context.Background(), readRequest("station://ut"))
	if err != nil {
		t.Fatalf("handleStationResource failed: %v", err)
	}

	if len(contents) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected text contents, got %T", contents[0])
	}

	// Only the exact (case-insensitive) code match resolves, not the
	// fuzzy match the stations endpoint returned first.
	if !strings.Contains(text.Text, "# Utrecht Centraal") {
		t.Errorf("expected Utrecht Centraal, got: %s", text.Text)
	}
	if !strings.Contains(text.Text, "8400621") {
		t.Errorf("expected UIC code in output, got: %s", text.Text)
	}
	if text.MIMEType != "text/markdown" {
		t.Errorf("expected text/markdown, got %s", text.MIMEType)
	}
	if text.URI != "station://ut" {
		t.Errorf("expected original URI, got %s", text.URI)
	}
}

func TestStationResourceNotFound(t *testing.T) {
	api := &mockAPI{stations: []ns.Station{
		{Namen: ns.StationNames{Lang: "Utrecht Maliebaan"}, Code: "utm"},
	}}
	rm := newTestResourceManager(api)

	_, err := rm.handleStationResource(context.Background(), readRequest("station://zzz"))
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found message, got: %v", err)
	}
}

func TestStationResourceMissingCode(t *testing.T) {
	api := &mockAPI{}
	rm := newTestResourceManager(api)

	_, err := rm.handleStationResource(context.Background(), readRequest("station://"))
	if err == nil {
		t.Fatal("expected error for missing code")
	}
	if len(api.stationCalls) != 0 {
		t.Error("missing code must not reach the API client")
	}
}

func TestStationResourceUpstreamError(t *testing.T) {
	api := &mockAPI{stationsErr: &ns.APIError{StatusCode: 500, Message: "boom"}}
	rm := newTestResourceManager(api)

	_, err := rm.handleStationResource(context.Background(), readRequest("station://ut"))
	if err == nil {
		t.Fatal("expected upstream error to propagate")
	}
}

func TestExtractStationCode(t *testing.T) {
	cases := map[string]string{
		"station://ut":   "ut",
		"station://asd/": "asd",
		"station://":     "",
		"other://ut":     "",
	}

	for uri, want := range cases {
		if got := extractStationCode(uri); got != want {
			t.Errorf("extractStationCode(%q) = %q, want %q", uri, got, want)
		}
	}
}
