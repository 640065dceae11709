// Package texttovideo generates videos with the RapidAPI text-to-video API.
//
// The provider's response format is not documented consistently, so the
// result URL is looked up with an ordered list of extraction strategies:
//
//  1. top-level "video_url"
//  2. nested "output.url"
//  3. nested "result.video_url"
//
// The first location present in the response wins, even when its value is
// null, empty or not a string; such a value fails the call instead of falling
// through to the next location. A top-level "error" field, whatever its value,
// always takes precedence over any URL.
package texttovideo

import (
	"context"
	"log/slog"
	"net/url"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/florianilch/aihub/internal/provider"
)

// Name identifies the provider in errors, logs and modality listings.
const Name = "texttovideo"

const (
	// DefaultBaseURL is the RapidAPI text-to-video host.
	DefaultBaseURL = "https://text-to-video.p.rapidapi.com"
	// Model describes the fixed endpoint; the API has no model selection.
	Model = "process_text_and_search_media"
)

// Fixed generation parameters.
const (
	dimension   = "16:9"
	searchMode  = "general"
	style       = "cinematic"
	aspectRatio = "16:9"
	duration    = "10-20"
)

// URLStrategies is the ordered list of result URL locations.
var URLStrategies = []provider.Strategy{
	provider.FieldAt("video_url"),
	provider.FieldAt("output.url"),
	provider.FieldAt("result.video_url"),
}

// Adapter generates one video per prompt and returns its URL.
type Adapter struct {
	client *provider.Client
}

// New creates an Adapter. RapidAPI routes on the X-RapidAPI-Host header,
// which is derived from baseURL.
func New(baseURL, apiKey string, opts ...provider.Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}

	opts = append(slices.Clip(opts),
		provider.WithHeader("X-RapidAPI-Key", apiKey),
		provider.WithHeader("X-RapidAPI-Host", host),
	)

	return &Adapter{
		client: provider.NewClient(Name, baseURL, opts...),
	}
}

// GenerateVideo submits the prompt as a single script and returns the video URL.
func (a *Adapter) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating video", "provider", Name)

	req := apiRequest{
		Scripts:     []string{prompt},
		Dimension:   dimension,
		SearchMode:  searchMode,
		Style:       style,
		AspectRatio: aspectRatio,
		Duration:    duration,
	}

	body, err := a.client.PostJSON(ctx, "/v3/"+Model, req)
	if err != nil {
		return "", err
	}

	return ExtractVideoURL(body)
}

// ExtractVideoURL reads the result URL from a provider response. A provider
// error message wins over any URL present in the same response.
func ExtractVideoURL(body []byte) (string, error) {
	doc, err := provider.ParseJSON(Name, body)
	if err != nil {
		return "", err
	}

	if msg, ok := reportedError(doc); ok {
		return "", &provider.ReportedError{Provider: Name, Message: msg}
	}

	videoURL, ok := provider.FirstMatch(doc, URLStrategies...)
	if !ok || videoURL == "" {
		return "", &provider.ShapeError{Provider: Name, Reason: "no video URL found in response", Body: body}
	}

	return videoURL, nil
}

// reportedError returns the provider's error message when the response carries
// a top-level "error" field. A present null reports an empty message.
func reportedError(doc gjson.Result) (string, bool) {
	errField := doc.Get("error")
	if !errField.Exists() {
		return "", false
	}
	if errField.Type == gjson.Null {
		return "", true
	}

	if errField.IsObject() {
		if msg := errField.Get("message"); msg.Exists() {
			return msg.String(), true
		}
		return errField.Raw, true
	}

	return errField.String(), true
}

// --- request types ---

type apiRequest struct {
	Scripts     []string `json:"scripts"`
	Dimension   string   `json:"dimension"`
	SearchMode  string   `json:"search_mode"`
	Style       string   `json:"style"`
	AspectRatio string   `json:"aspect_ratio"`
	Duration    string   `json:"duration"`
}
