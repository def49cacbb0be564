package mcpserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// skillResourcePrefix is the URI scheme for skill documents.
const skillResourcePrefix = "resource://skill/"

// registerResources registers the skill resource template.
func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "skill",
			URITemplate: skillResourcePrefix + "{name}",
			Description: "Complete skill documents by name. Unauthenticated reads return a preview.",
			MIMEType:    "text/markdown",
		},
		s.handleSkillResource,
	)
	s.logger.Debug("registered resource template",
		slog.String("uri", skillResourcePrefix+"{name}"))
}

// handleSkillResource serves resource://skill/{name}. Name validation
// and path containment live in the library; invalid or escaping names
// surface as not-found without echoing path details.
func (s *Server) handleSkillResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name := strings.TrimPrefix(uri, skillResourcePrefix)
	if name == uri || name == "" {
		return nil, NewResourceNotFoundError(uri)
	}

	id, err := s.gate.Identify(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	authenticated := id.Authenticated() || id.Localhost

	content, err := s.lib.ReadSkillResource(name, authenticated)
	if err != nil {
		return nil, NewResourceNotFoundError(uri)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     content,
			},
		},
	}, nil
}
