// tradingagent runs the five-stage strategy-generation pipeline once,
// or resumes a previously checkpointed run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantpipeline/tradingagent/internal/application/agent"
	"github.com/quantpipeline/tradingagent/internal/application/orchestrator"
	"github.com/quantpipeline/tradingagent/internal/domain"
	"github.com/quantpipeline/tradingagent/internal/infrastructure/checkpoint"
	"github.com/quantpipeline/tradingagent/internal/infrastructure/config"
	"github.com/quantpipeline/tradingagent/internal/infrastructure/llm"
	"github.com/quantpipeline/tradingagent/internal/infrastructure/monitoring"
	"github.com/quantpipeline/tradingagent/internal/infrastructure/tool"
)

const usage = `tradingagent - strategy-generation pipeline runner

USAGE:
    tradingagent run -workflow-id <id> -context-pack <file.json> [-model-id <id>]
    tradingagent resume -workflow-id <id>

COMMANDS:
    run       Start a fresh workflow at the CANDIDATES stage
    resume    Continue a checkpointed workflow from its next stage

RUN OPTIONS:
    -workflow-id <id>       Unique id for this workflow run (required)
    -context-pack <file>    Path to a JSON-encoded ContextPack (required)
    -model-id <id>          Model id as "provider:name" (default: $DEFAULT_MODEL)

RESUME OPTIONS:
    -workflow-id <id>       Id of the workflow to resume (required)

ENVIRONMENT VARIABLES:
    OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY, DEEPSEEK_API_KEY,
    KIMI_API_KEY, TOGETHER_API_KEY, OPENAI_BASE_URL
    DEFAULT_MODEL, COMPRESS_MCP_RESULTS, SUMMARIZATION_MODEL, TRACK_TOKENS
    LOG_LEVEL, LOG_FORMAT, CHECKPOINT_DRIVER, CHECKPOINT_DSN
    SYMPHONY_URL, SYMPHONY_API_KEY
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Load()
	configureLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("tradingagent: shutdown signal received, checkpoint preserved for resume")
		cancel()
	}()

	orch, err := wireOrchestrator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("tradingagent: wiring failed")
	}

	switch os.Args[1] {
	case "run":
		runCommand(ctx, orch, cfg, os.Args[2:])
	case "resume":
		resumeCommand(ctx, orch, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func configureLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// wireOrchestrator builds the Agent Runtime, provider clients, tool set,
// checkpoint store, and optional metrics collector, and assembles an
// Orchestrator ready to run or resume.
func wireOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	var metrics *monitoring.MetricsCollector
	if cfg.TrackTokens {
		metrics = monitoring.NewMetricsCollector()
	}

	clients := map[string]agent.ChatClient{
		"openai":    llm.NewOpenAIClient(),
		"anthropic": llm.NewAnthropicClient(),
		"gemini":    llm.NewGeminiClient(),
	}

	compressor := &agent.Compressor{
		Enabled:            cfg.CompressMCPResults,
		SummarizationModel: cfg.SummarizationModel,
		Client:             clients["openai"],
	}

	runtime := agent.NewRuntime(clients, compressor)
	if metrics != nil {
		runtime.Metrics = metrics
	}

	store, err := wireCheckpointStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("checkpoint store: %w", err)
	}

	symphonyTool := tool.NewSymphonySave(cfg.SymphonyURL, cfg.SymphonyAPIKey)

	marketDataTools := []agent.Tool{
		tool.NewFetchPriceHistory(""),
		tool.NewFetchTimeSeries(""),
		tool.NewSearchMacroCorpus(""),
		tool.NewFetchFREDSeries(""),
	}

	orch := orchestrator.New(runtime, symphonyTool, store)
	orch.MarketDataTools = marketDataTools
	if metrics != nil {
		orch.Metrics = metrics
	}
	return orch, nil
}

func wireCheckpointStore(ctx context.Context, cfg *config.Config) (orchestrator.CheckpointStore, error) {
	switch cfg.CheckpointDriver {
	case "postgres":
		return checkpoint.OpenSQLStore(ctx, cfg.CheckpointDSN)
	case "memory", "":
		return checkpoint.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unrecognized CHECKPOINT_DRIVER %q", cfg.CheckpointDriver)
	}
}

func runCommand(ctx context.Context, orch *orchestrator.Orchestrator, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	workflowID := fs.String("workflow-id", "", "Unique id for this workflow run (required)")
	contextPackPath := fs.String("context-pack", "", "Path to a JSON-encoded ContextPack (required)")
	modelID := fs.String("model-id", cfg.DefaultModel, "Model id as provider:name")
	if err := fs.Parse(args); err != nil {
		log.Fatal().Err(err).Msg("tradingagent: parsing run flags")
	}

	if *workflowID == "" {
		fmt.Fprintln(os.Stderr, "Error: -workflow-id is required")
		os.Exit(1)
	}
	if *contextPackPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -context-pack is required")
		os.Exit(1)
	}

	pack, err := loadContextPack(*contextPackPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *contextPackPath).Msg("tradingagent: loading context pack")
	}

	log.Info().Str("workflow_id", *workflowID).Str("model_id", *modelID).Msg("tradingagent: starting run")

	cp, err := orch.Run(ctx, *workflowID, *pack, *modelID)
	if err != nil {
		printResult(cp)
		log.Fatal().Err(err).Str("workflow_id", *workflowID).Msg("tradingagent: run failed")
	}
	printResult(cp)
}

func resumeCommand(ctx context.Context, orch *orchestrator.Orchestrator, args []string) {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	workflowID := fs.String("workflow-id", "", "Id of the workflow to resume (required)")
	if err := fs.Parse(args); err != nil {
		log.Fatal().Err(err).Msg("tradingagent: parsing resume flags")
	}

	if *workflowID == "" {
		fmt.Fprintln(os.Stderr, "Error: -workflow-id is required")
		os.Exit(1)
	}

	log.Info().Str("workflow_id", *workflowID).Msg("tradingagent: resuming")

	cp, err := orch.Resume(ctx, *workflowID)
	if err != nil {
		printResult(cp)
		log.Fatal().Err(err).Str("workflow_id", *workflowID).Msg("tradingagent: resume failed")
	}
	printResult(cp)
}

func loadContextPack(path string) (*domain.ContextPack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var pack domain.ContextPack
	if err := json.Unmarshal(raw, &pack); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &pack, nil
}

func printResult(cp *domain.WorkflowCheckpoint) {
	if cp == nil {
		return
	}
	fmt.Printf("workflow_id:         %s\n", cp.WorkflowID)
	fmt.Printf("last_completed_stage: %s\n", cp.LastCompletedStage)
	if cp.SymphonyID != "" {
		fmt.Printf("symphony_id:         %s\n", cp.SymphonyID)
	}
	if cp.DeployedAt != nil {
		fmt.Printf("deployed_at:         %s\n", cp.DeployedAt.Format(time.RFC3339))
	}
}
