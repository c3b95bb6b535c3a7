// Package mcp exposes the content cache and the remote mirror as MCP tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/savezy/savezy"
	"github.com/savezy/savezy/pkg/cache"
	"github.com/savezy/savezy/pkg/logging"
	"github.com/savezy/savezy/pkg/remote"
)

type SavezyMCPServer struct {
	mcpServer *server.MCPServer
	cache     *cache.Cache
	remote    *remote.Client
	log       logging.Logger
}

// NewSavezyMCPServer builds a server with every tool registered. rc may be nil,
// in which case the remote_* tools are left out.
func NewSavezyMCPServer(c *cache.Cache, rc *remote.Client, log logging.Logger) *SavezyMCPServer {
	s := server.NewMCPServer(
		"Savezy MCP Server",
		savezy.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)

	srv := &SavezyMCPServer{
		mcpServer: s,
		cache:     c,
		remote:    rc,
		log:       log.With("component", "mcp"),
	}
	srv.registerTools()
	return srv
}

func (s *SavezyMCPServer) registerTools() {
	RegisterPingTool(s.mcpServer)

	h := &contentHandlers{cache: s.cache, log: s.log}
	RegisterCreateContentTool(s.mcpServer, h)
	RegisterListContentsTool(s.mcpServer, h)
	RegisterGetContentTool(s.mcpServer, h)
	RegisterUpdateContentTool(s.mcpServer, h)
	RegisterDeleteContentTool(s.mcpServer, h)
	RegisterSearchContentsTool(s.mcpServer, h)
	RegisterListTagsTool(s.mcpServer, h)
	RegisterRefreshContentsTool(s.mcpServer, h)

	if s.remote != nil {
		rh := &remoteHandlers{client: s.remote, log: s.log}
		RegisterRemoteHealthTool(s.mcpServer, rh)
		RegisterRemoteListTool(s.mcpServer, rh)
		RegisterRemoteSearchTool(s.mcpServer, rh)
	}
}

// Start runs the stdio event loop until stdin closes.
func (s *SavezyMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server.
func (s *SavezyMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
