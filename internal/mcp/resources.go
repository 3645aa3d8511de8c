package mcp

import (
	"context"
	"fmt"
	"strings"

	"ns-bridge/internal/ns"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ResourceManager manages the MCP resources backed by the NS API
type ResourceManager struct {
	api    ns.API
	config *Config
	log    *zap.SugaredLogger
}

// NewResourceManager creates a new resource manager
func NewResourceManager(api ns.API, config *Config, log *zap.SugaredLogger) *ResourceManager {
	return &ResourceManager{
		api:    api,
		config: config,
		log:    log,
	}
}

// RegisterResources registers all available resources with the MCP server
func (rm *ResourceManager) RegisterResources(s *server.MCPServer) error {
	if !rm.config.EnableResources {
		return nil
	}

	// A template, not a plain resource: plain resources only match their
	// literal URI, so station://ut would never reach the handler.
	stationResource := mcp.NewResourceTemplate(
		"station://{code}",
		"Station Information",
		mcp.WithTemplateDescription("Detailed information about a station by its code, e.g. station://ut"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
	s.AddResourceTemplate(stationResource, rm.handleStationResource)

	return nil
}

// handleStationResource resolves station://{code} to a single station.
func (rm *ResourceManager) handleStationResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	code := extractStationCode(req.Params.URI)
	if code == "" {
		return nil, fmt.Errorf("station code is required, e.g. station://ut")
	}

	stations, err := rm.api.SearchStations(ctx, ns.StationSearchParams{
		Query: code,
		Limit: 5,
	})
	if err != nil {
		rm.log.Warnw("station lookup failed", "code", code, "error", err)
		return nil, fmt.Errorf("failed to look up station '%s': %w", code, err)
	}

	// The stations endpoint matches fuzzily; only an exact code match
	// resolves the resource.
	station, ok := matchStationCode(stations, code)
	if !ok {
		return nil, fmt.Errorf("station '%s' not found", code)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     renderStation(station),
		},
	}, nil
}

// extractStationCode pulls the code out of a station://{code} URI.
func extractStationCode(uri string) string {
	code := strings.TrimPrefix(uri, "station://")
	if code == uri {
		return ""
	}
	return strings.TrimSpace(strings.Trim(code, "/"))
}

func matchStationCode(stations []ns.Station, code string) (ns.Station, bool) {
	for _, station := range stations {
		if strings.EqualFold(station.Code, code) {
			return station, true
		}
	}
	return ns.Station{}, false
}

func renderStation(station ns.Station) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", station.Name())
	fmt.Fprintf(&b, "- **Code**: %s\n", station.Code)
	if station.UICCode != "" {
		fmt.Fprintf(&b, "- **UIC Code**: %s\n", station.UICCode)
	}
	if station.CountryCode() != "" {
		fmt.Fprintf(&b, "- **Country**: %s\n", station.CountryCode())
	}
	if station.HasLocation() {
		fmt.Fprintf(&b, "- **Location**: %v, %v\n", station.Lat, station.Lng)
	}
	return b.String()
}
