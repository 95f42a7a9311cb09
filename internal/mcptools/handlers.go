package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/chronicle/internal/config"
	"github.com/dusk-indust/chronicle/internal/pipeline"
	"github.com/dusk-indust/chronicle/internal/plan"
	"github.com/dusk-indust/chronicle/internal/retrieval"
)

// PipelineService holds the configuration and retrieval index used by the
// MCP tool handlers.
type PipelineService struct {
	cfg   *config.Config
	index retrieval.Index // optional
}

// NewPipelineService creates a PipelineService over the given configuration.
func NewPipelineService(cfg *config.Config, index retrieval.Index) *PipelineService {
	return &PipelineService{cfg: cfg, index: index}
}

// PipelineStatus scans the output directory and reports per-stage progress.
func (s *PipelineService) PipelineStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ PipelineStatusInput,
) (*mcp.CallToolResult, PipelineStatusOutput, error) {
	st, err := pipeline.ScanStatus(s.cfg)
	if err != nil {
		return nil, PipelineStatusOutput{}, fmt.Errorf("scan status: %w", err)
	}
	return nil, PipelineStatusOutput{Status: *st}, nil
}

// RetrievalQuery forwards a query to the configured retrieval index.
func (s *PipelineService) RetrievalQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrievalQueryInput,
) (*mcp.CallToolResult, RetrievalQueryOutput, error) {
	if s.index == nil {
		return nil, RetrievalQueryOutput{}, fmt.Errorf("no retrieval index configured")
	}
	if input.Text == "" {
		return nil, RetrievalQueryOutput{}, fmt.Errorf("text is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = 3
	}

	snippets, err := s.index.Query(ctx, input.Text, topK)
	if err != nil {
		return nil, RetrievalQueryOutput{}, fmt.Errorf("query index: %w", err)
	}
	return nil, RetrievalQueryOutput{Snippets: snippets}, nil
}

// FileDependencies reads the persisted plan and returns the edges touching
// one file.
func (s *PipelineService) FileDependencies(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FileDependenciesInput,
) (*mcp.CallToolResult, FileDependenciesOutput, error) {
	if input.Path == "" {
		return nil, FileDependenciesOutput{}, fmt.Errorf("path is required")
	}

	planPath := pipeline.Layout{Root: s.cfg.OutputDir}.PlanPath()
	data, err := os.ReadFile(planPath)
	if err != nil {
		return nil, FileDependenciesOutput{}, fmt.Errorf("plan artifact unavailable, run the plan stage first: %w", err)
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, FileDependenciesOutput{}, fmt.Errorf("parse plan artifact: %w", err)
	}

	out := FileDependenciesOutput{DependsOn: []string{}, DependedBy: []string{}}
	for _, e := range p.Edges {
		switch input.Path {
		case e.From:
			out.DependsOn = append(out.DependsOn, e.To)
		case e.To:
			out.DependedBy = append(out.DependedBy, e.From)
		}
	}
	return nil, out, nil
}
