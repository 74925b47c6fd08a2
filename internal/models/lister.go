package models

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"codeberg.org/snonux/schemetrans/internal/llm"
)

// Lister handles listing the models of one provider
type Lister struct {
	provider string
	apiKey   string
	out      io.Writer
}

// NewLister creates a new model lister printing to stdout
func NewLister(provider, apiKey string) *Lister {
	return &Lister{
		provider: provider,
		apiKey:   apiKey,
		out:      os.Stdout,
	}
}

// SetOutput redirects the listing
func (l *Lister) SetOutput(w io.Writer) {
	l.out = w
}

// ListAvailableModels prints the models usable for translation
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	if l.apiKey == "" {
		return fmt.Errorf("%s API key not found. Set %s environment variable or configure in .schemetrans.yaml",
			l.provider, strings.ToUpper(l.provider)+"_API_KEY")
	}

	var ids []string
	var err error
	switch l.provider {
	case llm.ProviderGemini, "":
		ids, err = l.geminiModels(ctx)
	case llm.ProviderOpenAI:
		ids, err = l.openAIModels(ctx)
	default:
		return fmt.Errorf("unknown provider: %s", l.provider)
	}
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	PrintModels(l.out, l.provider, ids)
	return nil
}

func (l *Lister) geminiModels(ctx context.Context) ([]string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  l.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	var ids []string
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		if len(model.SupportedActions) > 0 && !slices.Contains(model.SupportedActions, "generateContent") {
			continue
		}
		ids = append(ids, strings.TrimPrefix(model.Name, "models/"))
	}
	return ids, nil
}

func (l *Lister) openAIModels(ctx context.Context) ([]string, error) {
	client := openai.NewClient(l.apiKey)
	list, err := client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list.Models))
	for _, model := range list.Models {
		ids = append(ids, model.ID)
	}
	return ids, nil
}

// Categorize splits model ids into text generation models and the rest.
// Embedding, speech and image models cannot translate.
func Categorize(ids []string) (text, other []string) {
	for _, id := range ids {
		lower := strings.ToLower(id)
		switch {
		case strings.Contains(lower, "embed"),
			strings.Contains(lower, "tts"),
			strings.Contains(lower, "audio"),
			strings.Contains(lower, "whisper"),
			strings.Contains(lower, "dall-e"),
			strings.Contains(lower, "imagen"),
			strings.Contains(lower, "moderation"):
			other = append(other, id)
		default:
			text = append(text, id)
		}
	}

	sort.Strings(text)
	sort.Strings(other)
	return text, other
}

// PrintModels writes the categorized listing
func PrintModels(w io.Writer, provider string, ids []string) {
	text, other := Categorize(ids)

	fmt.Fprintf(w, "Available %s models:\n", provider)
	fmt.Fprintln(w, "\nText generation models (usable with --model):")
	if len(text) == 0 {
		fmt.Fprintln(w, "  No text models found")
	}
	for _, id := range text {
		marker := ""
		if id == llm.DefaultModel(provider) {
			marker = " (default)"
		}
		fmt.Fprintf(w, "  %s%s\n", id, marker)
	}

	if len(other) > 0 {
		fmt.Fprintf(w, "\nOther models: %d (embedding, speech, image)\n", len(other))
	}
}
