package generation

import "context"

// TextCoder is the subset of a language model adapter used for text and code.
type TextCoder interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateCode(ctx context.Context, prompt string) (string, error)
}

// ImageMaker is the subset of an image adapter used for images.
type ImageMaker interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ContentService satisfies ContentGenerator by delegating text and code to one
// adapter and images to another.
type ContentService struct {
	language TextCoder
	images   ImageMaker
}

var _ ContentGenerator = (*ContentService)(nil)

// NewContentService composes a ContentService.
func NewContentService(language TextCoder, images ImageMaker) *ContentService {
	return &ContentService{language: language, images: images}
}

func (s *ContentService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.language.GenerateText(ctx, prompt)
}

func (s *ContentService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return s.images.GenerateImage(ctx, prompt)
}

func (s *ContentService) GenerateCode(ctx context.Context, prompt string) (string, error) {
	return s.language.GenerateCode(ctx, prompt)
}
