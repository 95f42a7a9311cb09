// Package mcptools exposes the pipeline's artifacts over the Model Context
// Protocol, so agent tooling can inspect progress and query the retrieval
// index without touching the output directory directly.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPipelineMCPServer creates an MCP server with the pipeline inspection
// tools registered.
func NewPipelineMCPServer(svc *PipelineService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "chronicle-pipeline",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_status",
		Description: "Report per-stage progress of the document synthesis pipeline, derived from the artifacts in the output directory.",
	}, svc.PipelineStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieval_query",
		Description: "Query the configured retrieval index for code snippets related to the given text.",
	}, svc.RetrievalQuery)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "file_dependencies",
		Description: "Return the in-tree dependencies of one catalogued source file, both directions, from the persisted plan.",
	}, svc.FileDependencies)

	return server
}

// RunMCPServer starts an HTTP server exposing the pipeline MCP tools.
func RunMCPServer(ctx context.Context, svc *PipelineService, addr string) error {
	server := NewPipelineMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
