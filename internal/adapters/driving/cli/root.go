// Package cli implements the Lexica command line interface. Commands
// talk to the core services through the driving ports; all wiring of
// adapters happens here.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/lexica-labs/lexica/internal/adapters/driven/config/file"
	"github.com/lexica-labs/lexica/internal/adapters/driven/embedding/local"
	embeddingollama "github.com/lexica-labs/lexica/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/lexica-labs/lexica/internal/adapters/driven/embedding/openai"
	generatorollama "github.com/lexica-labs/lexica/internal/adapters/driven/generator/ollama"
	"github.com/lexica-labs/lexica/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/lexica-labs/lexica/internal/adapters/driven/vector/memory"
	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
	"github.com/lexica-labs/lexica/internal/core/services"
	"github.com/lexica-labs/lexica/internal/logger"
	"github.com/lexica-labs/lexica/internal/masking"
	"github.com/lexica-labs/lexica/internal/segmenter"
)

// version is set by Execute.
var version = "dev"

// Global flags.
var (
	configPath  string
	verboseFlag bool
)

// Services wired by initServices and used by the commands.
var (
	appConfig       *configfile.Config
	store           *sqlite.Store
	orchestrator    driving.PipelineOrchestrator
	questionService driving.QuestionService
	documentService driving.DocumentService
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig
)

var rootCmd = &cobra.Command{
	Use:   "lexica",
	Short: "Legal document processing and retrieval",
	Long: `Lexica ingests legal documents through a masking, versioning,
segmentation and embedding pipeline, then answers questions over the
indexed corpus with token-budgeted retrieval contexts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if skipServiceInit(cmd) {
			return nil
		}
		return initServices(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.lexica/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
}

// Execute runs the root command under ctx. v is the build version.
// Cancelling ctx stops long-running commands like watch and
// schedule run.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown releases resources held by the services. Safe to call when
// nothing was initialised.
func Shutdown() error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	orchestrator = nil
	questionService = nil
	documentService = nil
	scheduler = nil
	appConfig = nil
	return err
}

// skipServiceInit reports whether a command runs without the full
// service stack.
func skipServiceInit(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return false
}

// initServices loads configuration, opens storage and wires the core
// services. Idempotent so tests can call commands repeatedly.
func initServices(ctx context.Context) error {
	if store != nil {
		return nil
	}

	cfg, err := configfile.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	appConfig = cfg
	pipelineCfg := cfg.PipelineConfig()
	schedulerConfig = cfg.SchedulerConfig()

	masker, err := masking.NewEngine(pipelineCfg.Rules)
	if err != nil {
		return fmt.Errorf("compiling masking rules: %w", err)
	}

	registry := segmenter.NewRegistry()
	registry.Register(segmenter.NewV1())

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("configuring embedder: %w", err)
	}
	if pipelineCfg.ModelVersion == "" {
		pipelineCfg.ModelVersion = embedder.ModelVersion()
	}
	generator := buildGenerator(cfg)

	s, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store = s

	index := vectormemory.NewIndex()

	orch := services.NewOrchestrator(pipelineCfg, masker,
		store.VersionStore(), store.SegmentStore(), store.EmbeddingStore(),
		registry, embedder, index, store.ProcessingStore(), nil)
	orchestrator = orch

	// The vector index is in-memory and reloads from storage on start.
	loaded, err := orch.RebuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("rebuilding vector index: %w", err)
	}
	logger.Debug("rebuilt vector index with %d vectors", loaded)

	questionService = services.NewQuestion(pipelineCfg, embedder, index,
		store.SegmentStore(), store.VersionStore(), generator, nil)
	documentService = services.NewDocument(pipelineCfg,
		store.VersionStore(), store.SegmentStore(), store.EmbeddingStore(),
		index, store.ProcessingStore())
	scheduler = services.NewScheduler(schedulerConfig, store.SchedulerStore(), orchestrator)

	return nil
}

// buildEmbedder selects the embedding backend from configuration.
// Anything but an explicit "ollama" or "openai" provider gets the
// offline hashing embedder, which needs no external service.
func buildEmbedder(cfg *configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:      cfg.Embedding.BaseURL,
			Model:        cfg.Embedding.Model,
			ModelVersion: cfg.Embedding.ModelVersion,
			Dimensions:   cfg.Embedding.Dimensions,
			RateLimit:    cfg.Embedding.RateLimit,
		}), nil
	case "openai":
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:       cfg.Embedding.APIKey,
			BaseURL:      cfg.Embedding.BaseURL,
			Model:        cfg.Embedding.Model,
			ModelVersion: cfg.Embedding.ModelVersion,
			Dimensions:   cfg.Embedding.Dimensions,
		})
	default:
		return local.NewEmbeddingService(cfg.Embedding.Dimensions, cfg.Embedding.ModelVersion), nil
	}
}

// buildGenerator creates the answer generator when one is configured.
// Without a model the ask command degrades to context-only output.
func buildGenerator(cfg *configfile.Config) driven.AnswerGenerator {
	if cfg.Generator.Model == "" && cfg.Generator.BaseURL == "" {
		return nil
	}
	timeout := time.Duration(0)
	if cfg.Generator.Timeout != "" {
		// Validated at load.
		timeout, _ = time.ParseDuration(cfg.Generator.Timeout)
	}
	return generatorollama.NewGenerator(generatorollama.Config{
		BaseURL: cfg.Generator.BaseURL,
		Model:   cfg.Generator.Model,
		Timeout: timeout,
	})
}
