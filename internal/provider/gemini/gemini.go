// Package gemini generates text and code with the Google Gemini generateContent API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/florianilch/aihub/internal/provider"
)

// Name identifies the provider in errors, logs and modality listings.
const Name = "gemini"

const (
	// DefaultBaseURL is the models collection of the Gemini v1 API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1/models"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"
)

// Sampling parameters. Code generation runs cooler than free text.
const (
	textTemperature = 0.7
	codeTemperature = 0.2
	topK            = 40
	topP            = 0.95
	maxOutputTokens = 2048
)

// codePrompt wraps a user request so the model answers with code only.
const codePrompt = "Generate code for the following request: %s. Provide only code as response, no explanations."

// Adapter generates text and code from a single prompt.
type Adapter struct {
	client *provider.Client
	model  string
}

// New creates an Adapter. The API key is sent in the x-goog-api-key header
// instead of the query string so it never shows up in URLs.
func New(baseURL, apiKey, model string, opts ...provider.Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	opts = append(slices.Clip(opts), provider.WithHeader("x-goog-api-key", apiKey))

	return &Adapter{
		client: provider.NewClient(Name, baseURL, opts...),
		model:  model,
	}
}

// Model returns the configured model name.
func (a *Adapter) Model() string {
	return a.model
}

// GenerateText answers the prompt as a single conversational turn.
func (a *Adapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating text", "provider", Name, "model", a.model)
	return a.generate(ctx, prompt, textTemperature)
}

// GenerateCode wraps the prompt with a code-only instruction and answers it.
func (a *Adapter) GenerateCode(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating code", "provider", Name, "model", a.model)
	return a.generate(ctx, fmt.Sprintf(codePrompt, prompt), codeTemperature)
}

func (a *Adapter) generate(ctx context.Context, text string, temperature float64) (string, error) {
	req := apiRequest{
		Contents: []apiContent{{
			Role:  "user",
			Parts: []apiPart{{Text: text}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			TopK:            topK,
			TopP:            topP,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	path := "/" + url.PathEscape(a.model) + ":generateContent"
	body, err := a.client.PostJSON(ctx, path, req)
	if err != nil {
		return "", err
	}

	return extractText(body)
}

// extractText walks candidates[0].content.parts[0].text and fails on any
// missing segment, empty array or empty text.
func extractText(body []byte) (string, error) {
	doc, err := provider.ParseJSON(Name, body)
	if err != nil {
		return "", err
	}

	shapeErr := func(reason string) error {
		return &provider.ShapeError{Provider: Name, Reason: reason, Body: body}
	}

	candidates := doc.Get("candidates")
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		return "", shapeErr("no candidates found in response")
	}

	content := candidates.Get("0.content")
	if !content.Exists() {
		return "", shapeErr("no content found in candidate")
	}

	parts := content.Get("parts")
	if !parts.IsArray() || len(parts.Array()) == 0 {
		return "", shapeErr("no parts found in content")
	}

	text, ok := provider.StringAt("0.text")(parts)
	if !ok {
		if !parts.Get("0.text").Exists() {
			return "", shapeErr("no text found in part")
		}
		return "", shapeErr("empty text in response")
	}

	return text, nil
}

// --- request types ---

type apiRequest struct {
	Contents         []apiContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}
