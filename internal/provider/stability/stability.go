// Package stability generates images with the Stability AI text-to-image API.
package stability

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/florianilch/aihub/internal/provider"
)

// Name identifies the provider in errors, logs and modality listings.
const Name = "stability"

const (
	// DefaultBaseURL is the root of the Stability AI v1 API.
	DefaultBaseURL = "https://api.stability.ai/v1"
	// DefaultModel is the SDXL engine used when no model is configured.
	DefaultModel = "stable-diffusion-xl-1024-v1-0"
)

// Fixed generation parameters. A single sample is requested; only the first
// artifact is ever used.
const (
	cfgScale = 7
	height   = 1024
	width    = 1024
	steps    = 30
	samples  = 1
)

// Adapter generates one image per prompt and returns it as a data URI.
type Adapter struct {
	client *provider.Client
	model  string
}

// New creates an Adapter authenticating with a bearer API key.
func New(baseURL, apiKey, model string, opts ...provider.Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	opts = append(slices.Clip(opts), provider.WithBearerToken(apiKey))

	return &Adapter{
		client: provider.NewClient(Name, baseURL, opts...),
		model:  model,
	}
}

// Model returns the configured engine name.
func (a *Adapter) Model() string {
	return a.model
}

// GenerateImage renders the prompt and returns a data:image/png;base64 URI.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating image", "provider", Name, "model", a.model)

	req := apiRequest{
		TextPrompts: []textPrompt{{Text: prompt, Weight: 1}},
		CfgScale:    cfgScale,
		Height:      height,
		Width:       width,
		Steps:       steps,
		Samples:     samples,
	}

	path := fmt.Sprintf("/generation/%s/text-to-image", url.PathEscape(a.model))
	body, err := a.client.PostJSON(ctx, path, req)
	if err != nil {
		return "", err
	}

	return extractImage(body)
}

// extractImage decodes the first artifact and re-encodes it as a data URI.
func extractImage(body []byte) (string, error) {
	doc, err := provider.ParseJSON(Name, body)
	if err != nil {
		return "", err
	}

	artifacts := doc.Get("artifacts")
	if !artifacts.IsArray() || len(artifacts.Array()) == 0 {
		return "", &provider.ShapeError{Provider: Name, Reason: "no artifacts found in response", Body: body}
	}

	encoded, ok := provider.StringAt("0.base64")(artifacts)
	if !ok {
		return "", &provider.ShapeError{Provider: Name, Reason: "no image data found in response", Body: body}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return "", &provider.ShapeError{Provider: Name, Reason: "image data is not valid base64", Body: body}
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// --- request types ---

type apiRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    int          `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Steps       int          `json:"steps"`
	Samples     int          `json:"samples"`
}

type textPrompt struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}
