package generation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/florianilch/aihub/internal/generation"
)

func TestSortBindings(t *testing.T) {
	bindings := []generation.Binding{
		{Modality: "hologram", Provider: "a"},
		{Modality: generation.Video, Provider: "texttovideo"},
		{Modality: generation.Code, Provider: "gemini"},
		{Modality: "smell", Provider: "b"},
		{Modality: generation.Text, Provider: "gemini"},
	}

	sorted := generation.SortBindings(bindings)

	var got []generation.Modality
	for _, b := range sorted {
		got = append(got, b.Modality)
	}
	assert.Equal(t, []generation.Modality{generation.Text, generation.Code, generation.Video, "hologram", "smell"}, got)

	assert.Equal(t, generation.Modality("hologram"), bindings[0].Modality, "input must not be reordered")
}

func TestSortBindings_CoversEveryModality(t *testing.T) {
	var bindings []generation.Binding
	for i := len(generation.Modalities) - 1; i >= 0; i-- {
		bindings = append(bindings, generation.Binding{Modality: generation.Modalities[i]})
	}

	sorted := generation.SortBindings(bindings)

	for i, b := range sorted {
		assert.Equal(t, generation.Modalities[i], b.Modality)
	}
}
