package config

const (
	defaultProvider  = "ollama"
	defaultTarget    = "http://localhost:11434"
	defaultLLMModel  = "llama3.2"
	defaultAPIListen = ":8081"

	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "ragbot_chunks"

	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultTopK = 5

	defaultMemoryDir       = "memory"
	defaultMemoryThreshold = 0.70

	defaultDocsDir = "docs"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "ragbot.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		LLM: LLMConfig{
			Provider: defaultProvider,
			Target:   defaultTarget,
			Model:    defaultLLMModel,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultProvider,
			Target:     defaultTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Retrieval: RetrievalConfig{
			TopK: defaultTopK,
		},
		Memory: MemoryConfig{
			Enabled:   true,
			Dir:       defaultMemoryDir,
			Threshold: defaultMemoryThreshold,
		},
		Ingest: IngestConfig{
			DocsDir: defaultDocsDir,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
