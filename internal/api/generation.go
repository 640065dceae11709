package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/florianilch/aihub/internal/generation"
	"github.com/florianilch/aihub/internal/observability/middleware"
	"github.com/florianilch/aihub/internal/provider"
)

// maxLoggedBody caps provider response bodies attached to shape error logs.
const maxLoggedBody = 2 << 10

type generationRequest struct {
	Prompt string `json:"prompt"`
}

type generateFunc func(ctx context.Context, prompt string) (string, error)

// generationHandler validates the prompt, calls generate and writes the
// result under field.
func generationHandler(modality generation.Modality, field string, generate generateFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		middleware.SetLogAttrs(ctx, slog.String("modality", string(modality)))

		var req generationRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if strings.TrimSpace(req.Prompt) == "" {
			writeError(ctx, w, http.StatusBadRequest, "Prompt cannot be empty")
			return
		}

		result, err := generate(ctx, req.Prompt)

		// The client is gone; nobody reads the response.
		if ctx.Err() != nil {
			slog.WarnContext(ctx, "client disconnected during generation", "modality", modality, "error", err)
			return
		}

		if err != nil {
			logGenerationError(ctx, modality, err)
			writeError(ctx, w, errorStatus(err), err.Error())
			return
		}

		writeJSON(ctx, w, map[string]string{field: result}, http.StatusOK)
	}
}

func logGenerationError(ctx context.Context, modality generation.Modality, err error) {
	attrs := []any{"modality", modality, "error", err}

	var shapeErr *provider.ShapeError
	if errors.As(err, &shapeErr) {
		body := shapeErr.Body
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody]
		}
		attrs = append(attrs, "response_body", string(body))
	}

	var rejection *provider.RejectionError
	if errors.As(err, &rejection) {
		attrs = append(attrs, "upstream_status", rejection.StatusCode)
	}

	slog.ErrorContext(ctx, "generation failed", attrs...)
}

// errorStatus maps a generation error to the response status.
func errorStatus(err error) int {
	if errors.Is(err, provider.ErrNotImplemented) {
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
