// Package sanitycmder provides the sanity command: a minimal end-to-end
// run of the turn pipeline that writes a verifiable output artifact.
package sanitycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/answer"
	"github.com/neehanthreddym/ragbot/pkg/cliui"
	"github.com/neehanthreddym/ragbot/pkg/config"
	embeddingutils "github.com/neehanthreddym/ragbot/pkg/embeddings/utils"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
	ingestinmemory "github.com/neehanthreddym/ragbot/pkg/ingest/inmemory"
	"github.com/neehanthreddym/ragbot/pkg/llm/llmutils"
	"github.com/neehanthreddym/ragbot/pkg/logger"
	"github.com/neehanthreddym/ragbot/pkg/memory"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	ledgerfile "github.com/neehanthreddym/ragbot/pkg/memory/ledger/file"
	"github.com/neehanthreddym/ragbot/pkg/retrieval"
	"github.com/neehanthreddym/ragbot/pkg/router"
	"github.com/neehanthreddym/ragbot/pkg/turn"
	"github.com/neehanthreddym/ragbot/pkg/vector/sqlitevec"
)

const sanityLongDesc string = `Run a minimal end-to-end check of the turn pipeline.

Documents from the docs directory are ingested into a throwaway
in-memory index, a set of answerable and unanswerable questions runs
through the full pipeline, and two memory-extraction turns exercise
the memory gate against throwaway ledgers. Results are written to
artifacts/sanity_output.json.

A zero exit code plus the presence of the artifact signal success.

Examples:
  ragbot sanity
  ragbot sanity --docs-dir ./docs -q "What does the report say about churn?"`

const sanityShortDesc string = "Run an end-to-end pipeline check"

const artifactPath = "artifacts/sanity_output.json"

// defaultQuestions run against the ingested documents when no -q flags
// are given.
var defaultQuestions = []string{
	"Summarize the main points of the uploaded documents in 3 bullets.",
	"Give one concrete detail from the uploaded documents and cite it.",
}

// unanswerableQuestions verify the pipeline refuses instead of
// hallucinating when the documents cannot support an answer.
var unanswerableQuestions = []string{
	"What is the CEO's phone number?",
	"What was the GDP of France in 2019?",
}

// memoryTurns exercise fact extraction and the ledger writes.
var memoryTurns = [][2]string{
	{
		"I prefer weekly summaries on Mondays.",
		"Noted! I'll remember that you prefer weekly summaries delivered on Mondays.",
	},
	{
		"I'm a Project Finance Analyst at a large asset management firm.",
		"Thanks for sharing! That context helps me tailor my responses to your domain.",
	},
}

var sanityFlagKeys = []string{
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagTopK,
	config.FlagDocsDir,
}

type sanityCommander struct {
	debug     bool
	configDir string
	questions []string

	llmProv    string
	llmTarget  string
	llmModel   string
	embedProv  string
	embedTgt   string
	embedModel string
	embedDims  uint
	topK       uint
	docsDir    string

	logger *zap.Logger
}

// qaResult is one answered question in the artifact.
type qaResult struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Citations []answer.Citation `json:"citations"`
}

// refusalResult is one unanswerable-question probe in the artifact.
type refusalResult struct {
	Question              string `json:"question"`
	Answer                string `json:"answer"`
	RefusedCorrectly      bool   `json:"refused_correctly"`
	HallucinatedCitations bool   `json:"hallucinated_citations"`
}

// memoryWrite is one saved fact in the artifact.
type memoryWrite struct {
	Target  string `json:"target"`
	Summary string `json:"summary"`
}

// sanityOutput is the artifact schema.
type sanityOutput struct {
	ImplementedFeatures []string   `json:"implemented_features"`
	QA                  []qaResult `json:"qa"`
	Demo                demoBlock  `json:"demo"`
}

type demoBlock struct {
	DocsUsed      []string        `json:"docs_used"`
	NumQuestions  int             `json:"num_questions"`
	RetrievalTopK uint            `json:"retrieval_top_k"`
	RefusalTests  []refusalResult `json:"refusal_tests"`
	MemoryWrites  []memoryWrite   `json:"memory_writes"`
}

func NewSanityCmd() *cobra.Command {
	cmder := &sanityCommander{}

	cmd := &cobra.Command{
		Use:   "sanity",
		Short: sanityShortDesc,
		Long:  sanityLongDesc,
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

	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagDocsDir, &cmder.docsDir)

	cmd.Flags().StringArrayVarP(&cmder.questions, "question", "q", nil, "Answerable question to run (repeatable)")

	return cmd
}

func (c *sanityCommander) resolve(cmd *cobra.Command) error {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, sanityFlagKeys)

	c.llmProv = v.GetString("llm.provider")
	c.llmTarget = v.GetString("llm.target")
	c.llmModel = v.GetString("llm.model")
	c.embedProv = v.GetString("embedding.provider")
	c.embedTgt = v.GetString("embedding.target")
	c.embedModel = v.GetString("embedding.model")
	c.embedDims = v.GetUint("embedding.dimensions")
	c.topK = v.GetUint("retrieval.top_k")
	c.docsDir = v.GetString("ingest.docs_dir")

	if len(c.questions) == 0 {
		c.questions = defaultQuestions
	}

	return nil
}

func (c *sanityCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
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

	// Throwaway stores so the sanity run never touches real state.
	vectorDriver, err := sqlitevec.NewDriver(sqlitevec.Config{
		DBPath:     ":memory:",
		Dimensions: c.embedDims,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer vectorDriver.Close()

	chunkStore := ingestinmemory.NewStore()

	ledgerDir, err := os.MkdirTemp("", "ragbot-sanity-*")
	if err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	defer os.RemoveAll(ledgerDir)

	userLedger, err := ledgerfile.NewStore(filepath.Join(ledgerDir, "user.log"))
	if err != nil {
		return fmt.Errorf("creating user ledger: %w", err)
	}
	defer userLedger.Close()

	companyLedger, err := ledgerfile.NewStore(filepath.Join(ledgerDir, "company.log"))
	if err != nil {
		return fmt.Errorf("creating company ledger: %w", err)
	}
	defer companyLedger.Close()

	retriever := retrieval.NewRetriever(embedder, vectorDriver, chunkStore, c.logger)
	generator := answer.NewGenerator(completer, c.logger)
	gate := memory.NewGate(completer, userLedger, companyLedger, c.logger)
	rt := router.NewRouter(completer, c.logger)

	pipeline := turn.NewPipeline(rt, retriever, generator, gate,
		userLedger, companyLedger, c.logger,
		turn.WithTopK(int(c.topK)),
	)

	ingestor := ingest.NewIngestor(
		ingest.NewChunker(ingest.DefaultChunkerOptions()),
		embedder, vectorDriver, chunkStore, c.logger,
	)

	fmt.Println()

	docsUsed, err := c.ingestDocs(ctx, ingestor)
	if err != nil {
		return err
	}

	output := sanityOutput{
		ImplementedFeatures: []string{"A", "B"},
		Demo: demoBlock{
			DocsUsed:      docsUsed,
			NumQuestions:  len(c.questions) + len(unanswerableQuestions),
			RetrievalTopK: c.topK,
		},
	}

	for _, question := range c.questions {
		var result turn.Result
		err := cliui.Step(os.Stdout, fmt.Sprintf("Asking: %s", question), func() error {
			result = pipeline.Handle(ctx, question)
			return nil
		})
		if err != nil {
			return err
		}

		citations := result.Citations
		if citations == nil {
			citations = []answer.Citation{}
		}
		output.QA = append(output.QA, qaResult{
			Question:  question,
			Answer:    result.Answer,
			Citations: citations,
		})
	}

	for _, question := range unanswerableQuestions {
		var result turn.Result
		err := cliui.Step(os.Stdout, fmt.Sprintf("Refusal test: %s", question), func() error {
			result = pipeline.Handle(ctx, question)
			return nil
		})
		if err != nil {
			return err
		}

		output.Demo.RefusalTests = append(output.Demo.RefusalTests, refusalResult{
			Question:              question,
			Answer:                result.Answer,
			RefusedCorrectly:      looksLikeRefusal(result.Answer),
			HallucinatedCitations: len(result.Citations) > 0,
		})
	}

	for _, pair := range memoryTurns {
		userMsg, assistantMsg := pair[0], pair[1]
		err := cliui.Step(os.Stdout, fmt.Sprintf("Memory turn: %s", userMsg), func() error {
			gate.Process(ctx, userMsg, assistantMsg)
			return nil
		})
		if err != nil {
			return err
		}
	}

	writes, err := collectMemoryWrites(ctx, userLedger, companyLedger)
	if err != nil {
		return err
	}
	output.Demo.MemoryWrites = writes

	if err := writeArtifact(output); err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprintf("Sanity check passed, output written to %s", artifactPath)),
	)

	return nil
}

// ingestDocs indexes every supported file in the docs directory into the
// throwaway stores, returning the document names used.
func (c *sanityCommander) ingestDocs(ctx context.Context, ingestor *ingest.Ingestor) ([]string, error) {
	entries, err := os.ReadDir(c.docsDir)
	if err != nil {
		return nil, fmt.Errorf("reading docs dir %s: %w", c.docsDir, err)
	}

	var docsUsed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(c.docsDir, entry.Name())
		err := cliui.Step(os.Stdout, fmt.Sprintf("Ingesting %s", entry.Name()), func() error {
			_, ingestErr := ingestor.IngestFile(ctx, path)
			return ingestErr
		})
		if err != nil {
			continue
		}
		docsUsed = append(docsUsed, entry.Name())
	}

	if len(docsUsed) == 0 {
		return nil, fmt.Errorf("no supported documents found in %s", c.docsDir)
	}

	return docsUsed, nil
}

// looksLikeRefusal checks for refusal phrasing rather than an exact match
// so model-generated refusals count too.
func looksLikeRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range []string{
		"i don't have", "i cannot find", "not found",
		"no relevant", "not covered", "cannot answer",
		"not mentioned", "no information", "don't have enough",
	} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func collectMemoryWrites(ctx context.Context, user, company ledger.Store) ([]memoryWrite, error) {
	writes := []memoryWrite{}

	for _, pair := range []struct {
		scope ledger.Scope
		store ledger.Store
	}{
		{ledger.ScopeUser, user},
		{ledger.ScopeCompany, company},
	} {
		entries, err := pair.store.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading %s ledger: %w", pair.scope, err)
		}
		for _, entry := range entries {
			writes = append(writes, memoryWrite{
				Target:  strings.ToUpper(string(pair.scope)),
				Summary: entry.Fact,
			})
		}
	}

	return writes, nil
}

func writeArtifact(output sanityOutput) error {
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o755); err != nil {
		return fmt.Errorf("creating artifacts dir: %w", err)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}

	if err := os.WriteFile(artifactPath, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", artifactPath, err)
	}

	return nil
}
