package generation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/aihub/internal/generation"
	"github.com/florianilch/aihub/internal/provider/elevenlabs"
	"github.com/florianilch/aihub/internal/provider/gemini"
	"github.com/florianilch/aihub/internal/provider/stability"
	"github.com/florianilch/aihub/internal/provider/texttovideo"
)

// Adapters must satisfy the facades they are bound to.
var (
	_ generation.TextCoder      = (*gemini.Adapter)(nil)
	_ generation.ImageMaker     = (*stability.Adapter)(nil)
	_ generation.AudioGenerator = (*elevenlabs.Adapter)(nil)
	_ generation.VideoGenerator = (*texttovideo.Adapter)(nil)
)

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) record(kind, prompt string) (string, error) {
	r.calls = append(r.calls, kind+":"+prompt)
	return kind + " result", r.err
}

func (r *recorder) GenerateText(_ context.Context, prompt string) (string, error) {
	return r.record("text", prompt)
}

func (r *recorder) GenerateCode(_ context.Context, prompt string) (string, error) {
	return r.record("code", prompt)
}

func (r *recorder) GenerateImage(_ context.Context, prompt string) (string, error) {
	return r.record("image", prompt)
}

func TestContentService_Delegates(t *testing.T) {
	language := &recorder{}
	images := &recorder{}
	svc := generation.NewContentService(language, images)
	ctx := context.Background()

	text, err := svc.GenerateText(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "text result", text)

	code, err := svc.GenerateCode(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "code result", code)

	url, err := svc.GenerateImage(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "image result", url)

	assert.Equal(t, []string{"text:a", "code:b"}, language.calls)
	assert.Equal(t, []string{"image:c"}, images.calls)
}

func TestContentService_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := generation.NewContentService(&recorder{err: boom}, &recorder{})

	_, err := svc.GenerateText(context.Background(), "a")
	assert.ErrorIs(t, err, boom)

	_, err = svc.GenerateImage(context.Background(), "a")
	assert.NoError(t, err)
}
