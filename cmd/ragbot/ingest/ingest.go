// Package ingestcmder provides the ingest command for chunking,
// embedding, and indexing documents.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	servecmder "github.com/neehanthreddym/ragbot/cmd/ragbot/serve"
	"github.com/neehanthreddym/ragbot/pkg/cliui"
	"github.com/neehanthreddym/ragbot/pkg/config"
	embeddingutils "github.com/neehanthreddym/ragbot/pkg/embeddings/utils"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
	ingestsqlite "github.com/neehanthreddym/ragbot/pkg/ingest/sqlite"
	"github.com/neehanthreddym/ragbot/pkg/logger"
	vectorutils "github.com/neehanthreddym/ragbot/pkg/vector/utils"
)

const ingestLongDesc string = `Chunk, embed, and index documents for retrieval.

Each document is parsed, split into token-budgeted chunks on markdown
boundaries, embedded, and indexed in the vector store. Chunk text is
persisted separately so answers can cite sources.

Supported document types: .md, .txt

Examples:
  ragbot ingest report.md
  ragbot ingest docs/
  ragbot ingest a.md b.md --embedding-model nomic-embed-text`

const ingestShortDesc string = "Chunk, embed, and index documents"

var ingestFlagKeys = []string{
	config.FlagSQLite,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

type ingestCommander struct {
	debug     bool
	configDir string

	sqlitePath string
	vectorProv string
	vectorTgt  string
	collection string
	embedProv  string
	embedTgt   string
	embedModel string
	embedDims  uint

	logger *zap.Logger
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <file|dir> [...]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)

	return cmd
}

func (c *ingestCommander) resolve(cmd *cobra.Command) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, ingestFlagKeys)

	c.sqlitePath = v.GetString("storage.sqlite_path")
	c.vectorProv = v.GetString("vector_store.provider")
	c.vectorTgt = v.GetString("vector_store.target")
	c.collection = v.GetString("vector_store.collection")
	c.embedProv = v.GetString("embedding.provider")
	c.embedTgt = v.GetString("embedding.target")
	c.embedModel = v.GetString("embedding.model")
	c.embedDims = v.GetUint("embedding.dimensions")

	ragbotDir, err := servecmder.ResolveDotDir(c.configDir)
	if err != nil {
		return err
	}
	if c.sqlitePath == "" {
		c.sqlitePath = filepath.Join(ragbotDir, "ragbot.sqlite")
	}
	if c.vectorTgt == "" {
		c.vectorTgt = c.sqlitePath
	}

	return nil
}

func (c *ingestCommander) run(ctx context.Context, args []string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	paths, err := collectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents found")
	}

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

	ingestor := ingest.NewIngestor(
		ingest.NewChunker(ingest.DefaultChunkerOptions()),
		embedder, vectorDriver, chunkStore, c.logger,
	)

	fmt.Println()
	total := 0
	for _, path := range paths {
		var chunks []ingest.Chunk
		err := cliui.Step(os.Stdout, fmt.Sprintf("Ingesting %s", filepath.Base(path)), func() error {
			var stepErr error
			chunks, stepErr = ingestor.IngestFile(ctx, path)
			return stepErr
		})
		if err != nil {
			fmt.Printf("    %s\n", cliui.DimStyle.Render(err.Error()))
			continue
		}
		total += len(chunks)
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprintf("%d chunks indexed from %d document(s)", total, len(paths))),
	)

	return nil
}

// collectPaths expands directory arguments into their immediate files.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}
