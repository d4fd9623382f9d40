package config

const (
	defaultStoreProvider = "sqlitevec"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultModelProvider = "ollama"
	defaultModelTarget   = "http://localhost:11434"
	defaultModelName     = "llama3.2"

	defaultAutoSaveThreshold  = 0.65
	defaultDiscardThreshold   = 0.35
	defaultDuplicateThreshold = 0.85
	defaultLinkThreshold      = 0.5
	defaultMaxLinks           = 3

	defaultRecallMinScore = 0.4
	defaultRecallLimit    = 5
	defaultInputBudget    = 6400
	defaultTopicBudget    = 8000
	defaultIndexBudget    = 1500

	defaultSummarizerMinMessages = 5

	defaultRecallSeconds   = 5
	defaultCompactSeconds  = 20
	defaultShutdownSeconds = 25
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Store: StoreConfig{
			Provider: defaultStoreProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Model: ModelConfig{
			Provider: defaultModelProvider,
			Target:   defaultModelTarget,
			Name:     defaultModelName,
		},
		Consolidate: ConsolidateConfig{
			AutoSaveThreshold:  defaultAutoSaveThreshold,
			DiscardThreshold:   defaultDiscardThreshold,
			DuplicateThreshold: defaultDuplicateThreshold,
			LinkThreshold:      defaultLinkThreshold,
			MaxLinks:           defaultMaxLinks,
		},
		Recall: RecallConfig{
			MinScore:    defaultRecallMinScore,
			Limit:       defaultRecallLimit,
			InputBudget: defaultInputBudget,
			TopicBudget: defaultTopicBudget,
			IndexBudget: defaultIndexBudget,
		},
		Summarizer: SummarizerConfig{
			Enabled:     true,
			MinMessages: defaultSummarizerMinMessages,
		},
		Timeouts: TimeoutConfig{
			RecallSeconds:   defaultRecallSeconds,
			CompactSeconds:  defaultCompactSeconds,
			ShutdownSeconds: defaultShutdownSeconds,
		},
	}
}
