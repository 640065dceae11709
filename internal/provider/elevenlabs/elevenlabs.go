// Package elevenlabs synthesizes speech with the ElevenLabs text-to-speech API
// and stores the result as a file under a served directory.
package elevenlabs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/florianilch/aihub/internal/provider"
)

// Name identifies the provider in errors, logs and modality listings.
const Name = "elevenlabs"

const (
	// DefaultBaseURL is the root of the ElevenLabs v1 API.
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	// DefaultVoice is the "Rachel" premade voice.
	DefaultVoice = "21m00Tcm4TlvDq8ikWAM"
	// DefaultModel is the multilingual speech model.
	DefaultModel = "eleven_multilingual_v2"
)

// Fixed voice settings.
const (
	stability       = 0.5
	similarityBoost = 0.75
)

// Adapter turns a prompt into an MP3 file and returns the URL path it is served under.
type Adapter struct {
	client  *provider.Client
	voice   string
	model   string
	dir     string
	urlBase string
}

// New creates an Adapter writing files into dir. Returned paths are rooted at
// urlBase (e.g. "/audio"), which must be where dir is served.
func New(baseURL, apiKey, voice, model, dir, urlBase string, opts ...provider.Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if voice == "" {
		voice = DefaultVoice
	}
	if model == "" {
		model = DefaultModel
	}

	opts = append(slices.Clip(opts), provider.WithHeader("xi-api-key", apiKey))

	return &Adapter{
		client:  provider.NewClient(Name, baseURL, opts...),
		voice:   voice,
		model:   model,
		dir:     dir,
		urlBase: urlBase,
	}
}

// Model returns the configured speech model.
func (a *Adapter) Model() string {
	return a.model
}

// Voice returns the configured voice id.
func (a *Adapter) Voice() string {
	return a.voice
}

// GenerateAudio synthesizes the prompt, writes it to a uniquely named file and
// returns the file's URL path. Each call writes a fresh file; nothing is reused.
func (a *Adapter) GenerateAudio(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating audio", "provider", Name, "model", a.model, "voice", a.voice)

	req := apiRequest{
		Text:    prompt,
		ModelID: a.model,
		VoiceSettings: voiceSettings{
			Stability:       stability,
			SimilarityBoost: similarityBoost,
		},
	}

	stream, err := a.client.PostStream(ctx, "/text-to-speech/"+url.PathEscape(a.voice), req, "audio/mpeg")
	if err != nil {
		return "", err
	}
	defer func() { _ = stream.Close() }()

	fileName := uuid.NewString() + ".mp3"
	filePath := filepath.Join(a.dir, fileName)

	size, err := a.writeFile(filePath, stream)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "audio file written", "path", filePath, "size_bytes", size)

	return path.Join(a.urlBase, fileName), nil
}

// writeFile streams r into filePath and verifies the result is non-empty.
// Partial or empty files are removed.
func (a *Adapter) writeFile(filePath string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return 0, &provider.LocalIOError{Op: "create directory", Path: a.dir, Err: err}
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, &provider.LocalIOError{Op: "create", Path: filePath, Err: err}
	}

	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(filePath)

		// File writes fail with *os.PathError; anything else came from reading the provider stream.
		var pathErr *os.PathError
		if copyErr != nil && !errors.As(copyErr, &pathErr) {
			return 0, &provider.TransportError{Provider: Name, Err: fmt.Errorf("read audio stream: %w", copyErr)}
		}
		return 0, &provider.LocalIOError{Op: "write", Path: filePath, Err: errors.Join(copyErr, closeErr)}
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return 0, &provider.LocalIOError{Op: "verify", Path: filePath, Err: err}
	}
	if info.Size() == 0 {
		_ = os.Remove(filePath)
		return 0, &provider.LocalIOError{Op: "verify", Path: filePath, Err: errors.New("audio file is empty")}
	}

	return info.Size(), nil
}

// --- request types ---

type apiRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}
