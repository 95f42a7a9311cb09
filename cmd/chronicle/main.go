// Command chronicle turns a source tree into a complete project manual: per
// file notes, structural analysis, a dependency-aware synthesis plan,
// intermediate documents, a project overview, and a sectioned final manual.
// Every stage persists its artifacts, so an interrupted run resumes where it
// stopped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/dusk-indust/chronicle/internal/config"
	"github.com/dusk-indust/chronicle/internal/llm"
	"github.com/dusk-indust/chronicle/internal/mcptools"
	"github.com/dusk-indust/chronicle/internal/pipeline"
	"github.com/dusk-indust/chronicle/internal/retrieval"
	"github.com/dusk-indust/chronicle/internal/structure"
)

// version is set by the linker at build time.
var version = "dev"

func main() {
	var (
		projectRoot = flag.String("project-root", ".", "directory holding chronicle.yml")
		sourceRoot  = flag.String("source", "", "override the source tree to document")
		outDir      = flag.String("out", "", "override the artifact output directory")
		stageName   = flag.String("stage", "", "run a single stage: annotate, analyze, plan, interdocs, overview, manual")
		force       = flag.Bool("force", false, "regenerate artifacts even when present")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
		status      = flag.Bool("status", false, "print per-stage progress and exit")
		initConfig  = flag.Bool("init", false, "write a starter chronicle.yml and exit")
		mcpAddr     = flag.String("serve-mcp", "", "serve the pipeline MCP tools on this address instead of running")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("chronicle", version)
		return
	}

	if err := run(*projectRoot, *sourceRoot, *outDir, *stageName, *force, *verbose, *status, *initConfig, *mcpAddr); err != nil {
		slog.Error("chronicle failed", "error", err)
		os.Exit(1)
	}
}

func run(projectRoot, sourceRoot, outDir, stageName string, force, verbose, status, initConfig bool, mcpAddr string) error {
	if initConfig {
		return writeStarterConfig(projectRoot)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return err
	}
	if sourceRoot != "" {
		cfg.SourceRoot = sourceRoot
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if verbose {
		cfg.Verbose = true
	}
	setupLogging(cfg.Verbose)

	if status {
		st, err := pipeline.ScanStatus(cfg)
		if err != nil {
			return err
		}
		fmt.Print(st.String())
		return nil
	}

	var index retrieval.Index
	if cfg.RetrievalEndpoint != "" {
		index = retrieval.NewServiceIndex(cfg.RetrievalEndpoint)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mcpAddr != "" {
		slog.Info("serving MCP tools", "addr", mcpAddr)
		return mcptools.RunMCPServer(ctx, mcptools.NewPipelineService(cfg, index), mcpAddr)
	}

	if cfg.ModelEndpoint == "" {
		return fmt.Errorf("modelEndpoint is not configured, set it in chronicle.yml")
	}

	extractor := structure.NewTreeSitterExtractor()
	defer extractor.Close()

	runner := &pipeline.Runner{
		Config:    cfg,
		Client:    llm.NewHTTPClient(cfg.ModelEndpoint, cfg.Model, llm.WithTimeout(5*time.Minute)),
		Index:     index,
		Extractor: extractor,
		Force:     force,
	}
	if stageName != "" {
		stage, err := pipeline.ParseStage(stageName)
		if err != nil {
			return err
		}
		runner.Only = &stage
	}

	return runner.Run(ctx)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}
