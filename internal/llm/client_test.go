package llm

import (
	"context"
	"strings"
	"testing"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     Provider
		wantErr  bool
	}{
		{name: "valid openai", provider: "openai", want: ProviderOpenAI},
		{name: "valid ollama", provider: "ollama", want: ProviderOllama},
		{name: "valid anthropic", provider: "anthropic", want: ProviderAnthropic},
		{name: "valid gemini", provider: "gemini", want: ProviderGemini},
		{name: "invalid provider", provider: "invalid", wantErr: true},
		{name: "empty provider", provider: "", wantErr: true},
		{name: "case sensitive - OPENAI fails", provider: "OPENAI", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ValidateProvider(%q) = %v, want %v", tt.provider, got, tt.want)
			}
		})
	}
}

func TestDefaultModelForProvider(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini} {
		if DefaultModelForProvider(p) == "" {
			t.Errorf("DefaultModelForProvider(%q) is empty", p)
		}
	}
	if got := DefaultModelForProvider("unknown"); got != "" {
		t.Errorf("DefaultModelForProvider(unknown) = %q, want empty", got)
	}
}

func TestNewChatModel_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "openai requires API key", cfg: Config{Provider: ProviderOpenAI}, wantErr: "OpenAI API key is required"},
		{name: "anthropic requires API key", cfg: Config{Provider: ProviderAnthropic}, wantErr: "anthropic API key is required"},
		{name: "gemini requires API key", cfg: Config{Provider: ProviderGemini}, wantErr: "gemini API key is required"},
		{name: "unsupported provider", cfg: Config{Provider: "unknown", APIKey: "key"}, wantErr: "unsupported LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChatModel(ctx, tt.cfg)
			if err == nil {
				t.Fatalf("NewChatModel() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewChatModel() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
