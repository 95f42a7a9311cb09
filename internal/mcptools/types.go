package mcptools

import (
	"github.com/dusk-indust/chronicle/internal/pipeline"
	"github.com/dusk-indust/chronicle/internal/retrieval"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// PipelineStatusInput is the input for the pipeline_status MCP tool.
type PipelineStatusInput struct{}

// PipelineStatusOutput is the result of the pipeline_status MCP tool.
type PipelineStatusOutput struct {
	Status pipeline.Status `json:"status"`
}

// RetrievalQueryInput is the input for the retrieval_query MCP tool.
type RetrievalQueryInput struct {
	Text string `json:"text" jsonschema:"text to search related code snippets for"`
	TopK int    `json:"topK,omitempty" jsonschema:"maximum number of snippets to return (default: 3)"`
}

// RetrievalQueryOutput is the result of the retrieval_query MCP tool.
type RetrievalQueryOutput struct {
	Snippets []retrieval.Snippet `json:"snippets"`
}

// FileDependenciesInput is the input for the file_dependencies MCP tool.
type FileDependenciesInput struct {
	Path string `json:"path" jsonschema:"catalogued source file path, relative to the source root"`
}

// FileDependenciesOutput is the result of the file_dependencies MCP tool.
type FileDependenciesOutput struct {
	DependsOn  []string `json:"dependsOn"`
	DependedBy []string `json:"dependedBy"`
}
