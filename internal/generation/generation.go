// Package generation defines the per-modality interfaces the HTTP layer depends on
// and composes provider adapters into them.
//
// Each modality is bound to exactly one adapter when the application starts.
// There is no routing or fallback between providers.
package generation

import (
	"cmp"
	"context"
	"slices"
)

// ContentGenerator produces text, images and code.
type ContentGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateImage returns a URL, which may be a data URI.
	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateCode(ctx context.Context, prompt string) (string, error)
}

// AudioGenerator synthesizes speech and returns the URL path of the stored file.
type AudioGenerator interface {
	GenerateAudio(ctx context.Context, prompt string) (string, error)
}

// VideoGenerator produces a video and returns its URL.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string) (string, error)
}

// Modality names one generation kind.
type Modality string

const (
	Text  Modality = "text"
	Image Modality = "image"
	Code  Modality = "code"
	Audio Modality = "audio"
	Video Modality = "video"
)

// Modalities lists every modality in display order.
var Modalities = []Modality{Text, Image, Code, Audio, Video}

// Binding records which provider and model serve a modality.
type Binding struct {
	Modality Modality `json:"modality"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
}

// SortBindings returns a copy of bindings ordered like Modalities. Unknown
// modalities keep their relative order after the known ones.
func SortBindings(bindings []Binding) []Binding {
	rank := func(m Modality) int {
		if i := slices.Index(Modalities, m); i >= 0 {
			return i
		}
		return len(Modalities)
	}

	sorted := slices.Clone(bindings)
	slices.SortStableFunc(sorted, func(a, b Binding) int {
		return cmp.Compare(rank(a.Modality), rank(b.Modality))
	})
	return sorted
}
