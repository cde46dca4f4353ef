package mcp

import (
	"context"
	"encoding/json"
	"os"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/para-dev/para/internal/state"
)

const (
	currentSessionURI = "para://session/current"
	configURI         = "para://config"
)

// registerResources registers the two read-only resources: the session
// bound to the calling process via PARA_SESSION, and the fully resolved
// config.
func (s *Server) registerResources() {
	s.mcp.AddResource(&sdkmcp.Resource{
		URI:         currentSessionURI,
		Name:        "current_session",
		Description: "The session named by the PARA_SESSION environment variable, if any",
		MIMEType:    "application/json",
	}, s.readCurrentSession)

	s.mcp.AddResource(&sdkmcp.Resource{
		URI:         configURI,
		Name:        "config",
		Description: "Para's fully resolved configuration for this repository",
		MIMEType:    "application/json",
	}, s.readConfig)
}

func (s *Server) readCurrentSession(ctx context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	name := os.Getenv("PARA_SESSION")
	var payload any = map[string]string{"session": ""}
	if name != "" {
		recs, err := s.mgr.List(ctx, state.ScopeActive)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if rec.Name == name {
				payload = summarize(rec)
				break
			}
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{{
			URI:      currentSessionURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) readConfig(_ context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.Marshal(s.cfg)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{{
			URI:      configURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
