// Package servecmder provides the serve command for running the ragbot
// API and MCP servers.
package servecmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/api"
	"github.com/neehanthreddym/ragbot/api/mcp"
	"github.com/neehanthreddym/ragbot/pkg/answer"
	"github.com/neehanthreddym/ragbot/pkg/config"
	"github.com/neehanthreddym/ragbot/pkg/dotdir"
	embeddingutils "github.com/neehanthreddym/ragbot/pkg/embeddings/utils"
	"github.com/neehanthreddym/ragbot/pkg/eventstream"
	"github.com/neehanthreddym/ragbot/pkg/eventstream/kafka"
	"github.com/neehanthreddym/ragbot/pkg/eventstream/nop"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
	ingestsqlite "github.com/neehanthreddym/ragbot/pkg/ingest/sqlite"
	"github.com/neehanthreddym/ragbot/pkg/llm/llmutils"
	"github.com/neehanthreddym/ragbot/pkg/logger"
	"github.com/neehanthreddym/ragbot/pkg/memory"
	ledgerfile "github.com/neehanthreddym/ragbot/pkg/memory/ledger/file"
	"github.com/neehanthreddym/ragbot/pkg/retrieval"
	"github.com/neehanthreddym/ragbot/pkg/router"
	"github.com/neehanthreddym/ragbot/pkg/turn"
	vectorutils "github.com/neehanthreddym/ragbot/pkg/vector/utils"
)

const serveLongDesc string = `Run the ragbot API server.

Serves the turn pipeline over HTTP along with document ingestion and
the memory ledgers. An MCP server with ask and memory_recall tools is
mounted at /mcp unless --no-mcp is set.

With --watch, the docs directory is watched and new or changed files
are ingested automatically.

Examples:
  ragbot serve
  ragbot serve --api-listen :9090 --model llama3.2
  ragbot serve --watch --docs-dir ./docs`

const serveShortDesc string = "Run the ragbot API server"

// serveFlagKeys are the registry flags the serve command binds to viper.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagSQLite,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagTopK,
	config.FlagMemoryDir,
	config.FlagDocsDir,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

type serveCommander struct {
	debug     bool
	configDir string
	watch     bool
	noMCP     bool

	ragbotDir  string
	apiListen  string
	llmProv    string
	llmTarget  string
	llmModel   string
	sqlitePath string
	vectorProv string
	vectorTgt  string
	collection string
	embedProv  string
	embedTgt   string
	embedModel string
	embedDims  uint
	topK       uint
	memoryDir  string
	docsDir    string
	eventsProv string
	brokers    string
	topic      string

	logger *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %w", err)
			}
			return cmder.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryDir, &cmder.memoryDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagDocsDir, &cmder.docsDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.topic)

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch the docs directory and auto-ingest new files")
	cmd.Flags().Bool("no-mcp", false, "Disable the MCP server at /mcp")

	return cmd
}

// resolve applies the flag > env > config file > default precedence chain
// and fills in path defaults relative to the .ragbot/ directory.
func (c *serveCommander) resolve(cmd *cobra.Command) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)

	c.apiListen = v.GetString("api.listen")
	c.llmProv = v.GetString("llm.provider")
	c.llmTarget = v.GetString("llm.target")
	c.llmModel = v.GetString("llm.model")
	c.sqlitePath = v.GetString("storage.sqlite_path")
	c.vectorProv = v.GetString("vector_store.provider")
	c.vectorTgt = v.GetString("vector_store.target")
	c.collection = v.GetString("vector_store.collection")
	c.embedProv = v.GetString("embedding.provider")
	c.embedTgt = v.GetString("embedding.target")
	c.embedModel = v.GetString("embedding.model")
	c.embedDims = v.GetUint("embedding.dimensions")
	c.topK = v.GetUint("retrieval.top_k")
	c.memoryDir = v.GetString("memory.dir")
	c.docsDir = v.GetString("ingest.docs_dir")
	c.eventsProv = v.GetString("events.provider")
	c.brokers = v.GetString("events.brokers")
	c.topic = v.GetString("events.topic")

	c.noMCP, err = cmd.Flags().GetBool("no-mcp")
	if err != nil {
		return fmt.Errorf("could not get no-mcp flag: %w", err)
	}

	c.ragbotDir, err = ResolveDotDir(c.configDir)
	if err != nil {
		return err
	}

	if c.sqlitePath == "" {
		c.sqlitePath = filepath.Join(c.ragbotDir, "ragbot.sqlite")
	}
	if c.vectorTgt == "" {
		c.vectorTgt = c.sqlitePath
	}
	if !filepath.IsAbs(c.memoryDir) {
		c.memoryDir = filepath.Join(c.ragbotDir, c.memoryDir)
	}

	return nil
}

// ResolveDotDir returns the active .ragbot/ directory, creating the home
// fallback when no local directory exists.
func ResolveDotDir(configDir string) (string, error) {
	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving target dir: %w", err)
	}
	return target, nil
}

func (c *serveCommander) run(ctx context.Context) error {
	logFile, err := os.OpenFile(filepath.Join(c.ragbotDir, "serve.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	c.logger = logger.NewLoggerWithWriters(c.debug, os.Stdout, logFile)
	defer func() { _ = c.logger.Sync() }()

	completer, err := llmutils.NewCompleter(&llmutils.NewCompleterOpts{
		ProviderType: c.llmProv,
		TargetURL:    c.llmTarget,
		Model:        c.llmModel,
		APIKey:       os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return fmt.Errorf("creating completer: %w", err)
	}
	defer completer.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embedProv,
		TargetURL:    c.embedTgt,
		Model:        c.embedModel,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	vectorDriver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: c.vectorProv,
		Target:       c.vectorTgt,
		Collection:   c.collection,
		Dimensions:   c.embedDims,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer vectorDriver.Close()

	chunkStore, err := ingestsqlite.NewStore(ingestsqlite.Config{DBPath: c.sqlitePath}, c.logger)
	if err != nil {
		return fmt.Errorf("creating chunk store: %w", err)
	}
	defer chunkStore.Close()

	userLedger, err := ledgerfile.NewStore(filepath.Join(c.memoryDir, "user.log"))
	if err != nil {
		return fmt.Errorf("creating user ledger: %w", err)
	}
	defer userLedger.Close()

	companyLedger, err := ledgerfile.NewStore(filepath.Join(c.memoryDir, "company.log"))
	if err != nil {
		return fmt.Errorf("creating company ledger: %w", err)
	}
	defer companyLedger.Close()

	retriever := retrieval.NewRetriever(embedder, vectorDriver, chunkStore, c.logger)
	generator := answer.NewGenerator(completer, c.logger)
	gate := memory.NewGate(completer, userLedger, companyLedger, c.logger)
	rt := router.NewRouter(completer, c.logger)

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pipeline := turn.NewPipeline(rt, retriever, generator, gate,
		userLedger, companyLedger, c.logger,
		turn.WithTopK(int(c.topK)),
		turn.WithPublisher(publisher, eventstream.EventSource{
			Service:  "ragbot-serve",
			Provider: c.llmProv,
			Model:    c.llmModel,
		}),
	)

	ingestor := ingest.NewIngestor(
		ingest.NewChunker(ingest.DefaultChunkerOptions()),
		embedder, vectorDriver, chunkStore, c.logger,
	)

	var mcpHandler http.Handler
	mcpServer, err := mcp.NewServer(mcp.Config{
		Pipeline:      pipeline,
		UserLedger:    userLedger,
		CompanyLedger: companyLedger,
		Noop:          c.noMCP,
		Logger:        c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}
	mcpHandler = mcpServer.Handler()

	apiConfig := api.Config{ListenAddr: c.apiListen}
	apiServer := api.NewServer(apiConfig, pipeline, ingestor, userLedger, companyLedger, mcpHandler, c.logger)

	c.logger.Info("starting api server",
		zap.String("api_addr", c.apiListen),
		zap.String("llm_model", c.llmModel),
		zap.String("vector_store", c.vectorProv),
	)

	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if c.watch {
		go func() {
			if err := c.watchDocs(watchCtx, ingestor); err != nil && watchCtx.Err() == nil {
				errChan <- fmt.Errorf("docs watcher error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventsProv {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		if c.brokers == "" {
			return nil, fmt.Errorf("events.brokers is required for the kafka publisher")
		}
		return kafka.NewPublisher(strings.Split(c.brokers, ","), c.topic, c.logger), nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", c.eventsProv)
	}
}

// watchDocs ingests the docs directory once, then re-ingests files as they
// are created or written.
func (c *serveCommander) watchDocs(ctx context.Context, ingestor *ingest.Ingestor) error {
	if err := os.MkdirAll(c.docsDir, 0o755); err != nil {
		return fmt.Errorf("creating docs dir: %w", err)
	}

	entries, err := os.ReadDir(c.docsDir)
	if err != nil {
		return fmt.Errorf("reading docs dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		c.ingestPath(ctx, ingestor, filepath.Join(c.docsDir, entry.Name()))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating docs watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.docsDir); err != nil {
		return fmt.Errorf("watching docs dir: %w", err)
	}

	c.logger.Info("watching docs directory", zap.String("dir", c.docsDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.ingestPath(ctx, ingestor, event.Name)
		case err := <-watcher.Errors:
			return fmt.Errorf("docs watcher error: %w", err)
		}
	}
}

// ingestPath ingests one file, logging failures rather than stopping the
// watcher. Unsupported file types are skipped quietly.
func (c *serveCommander) ingestPath(ctx context.Context, ingestor *ingest.Ingestor, path string) {
	chunks, err := ingestor.IngestFile(ctx, path)
	if err != nil {
		c.logger.Debug("skipping document",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	c.logger.Info("ingested document",
		zap.String("source", filepath.Base(path)),
		zap.Int("chunks", len(chunks)),
	)
}
