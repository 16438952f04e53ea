package llm

// Provider constants
const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"

	// DefaultProvider is used when llm.provider is unset.
	DefaultProvider = ProviderOpenAI
)

// DefaultOllamaURL is the default URL for the Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultMaxTokens caps completions for providers that require a limit.
const DefaultMaxTokens = 8192

var defaultModels = map[Provider]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3.2",
	ProviderAnthropic: "claude-3-5-sonnet-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

// DefaultModelForProvider returns the model used when none is configured.
func DefaultModelForProvider(p Provider) string {
	return defaultModels[p]
}

// APIKeyEnvVars lists the environment variables consulted for each provider's key.
var APIKeyEnvVars = map[Provider][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}
