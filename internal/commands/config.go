package commands

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory
	DataDir string `help:"Path to data directory" default:"./data" env:"WALLETWISE_DATA_DIR"`
	// Timezone is used to group payments into days and months
	Timezone string `help:"Timezone to use for transaction dates" required:"" default:"Asia/Kolkata" env:"WALLETWISE_TIMEZONE"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
}

// EmbeddingConfig contains common flag definitions for embedding configuration
type EmbeddingConfig struct {
	Provider string `help:"Embedding provider to use" default:"huggingface" enum:"huggingface,openai,gemini,ollama,lmstudio" env:"EMBEDDING_PROVIDER"`

	HuggingFaceAPIKey   string `help:"HuggingFace inference API key" env:"HUGGINGFACE_API_KEY"`
	HuggingFaceModel    string `help:"HuggingFace embedding model" default:"sentence-transformers/all-MiniLM-L6-v2" env:"HUGGINGFACE_MODEL"`
	HuggingFaceEndpoint string `help:"HuggingFace inference endpoint" default:"https://api-inference.huggingface.co/models" env:"HUGGINGFACE_ENDPOINT"`

	OpenAIAPIKey   string `help:"OpenAI API key" env:"OPENAI_API_KEY"`
	OpenAIModel    string `help:"OpenAI embedding model" default:"text-embedding-3-small" env:"OPENAI_EMBEDDING_MODEL"`
	OpenAIEndpoint string `help:"OpenAI-compatible endpoint" env:"OPENAI_ENDPOINT"`

	GeminiAPIKey string `help:"Google Gemini API key" env:"GEMINI_API_KEY"`
	GeminiModel  string `help:"Gemini embedding model" env:"GEMINI_EMBEDDING_MODEL"`

	OllamaModel    string `help:"Ollama embedding model" default:"nomic-embed-text" env:"OLLAMA_EMBEDDING_MODEL"`
	OllamaEndpoint string `help:"Ollama OpenAI-compatible endpoint" default:"http://localhost:11434/v1" env:"OLLAMA_ENDPOINT"`

	LMStudioModel    string `help:"LMStudio embedding model" default:"text-embedding-nomic-embed-text-v1.5" env:"LMSTUDIO_EMBEDDING_MODEL"`
	LMStudioEndpoint string `help:"LMStudio OpenAI-compatible endpoint" default:"http://localhost:1234/v1" env:"LMSTUDIO_ENDPOINT"`

	RetryAttempts uint `help:"Attempts per embedding request for providers that retry" default:"1" env:"EMBEDDING_RETRY_ATTEMPTS"`
}

// LLMConfig configures the hosted chat model
type LLMConfig struct {
	GroqKey     string `help:"Groq API key" env:"GROQ_API_KEY"`
	LLMModel    string `help:"Chat model to use" default:"llama3-70b-8192" env:"WALLETWISE_LLM_MODEL"`
	LLMBaseURL  string `help:"OpenAI-compatible chat endpoint" default:"https://api.groq.com/openai/v1" env:"WALLETWISE_LLM_BASE_URL"`
	MaxAttempts int    `help:"Attempts per tool-call loop" default:"3"`
}
