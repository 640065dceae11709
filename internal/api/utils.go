package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Launcher opens a file for the user on the machine running the server.
type Launcher interface {
	Open(ctx context.Context, path string) error
}

// CommandLauncher runs an external program with the file path as its last
// argument, e.g. []string{"code", "--new-window"}.
type CommandLauncher struct {
	Command []string
}

var _ Launcher = CommandLauncher{}

// Open starts the program and returns without waiting for it to exit.
func (l CommandLauncher) Open(ctx context.Context, path string) error {
	if len(l.Command) == 0 {
		return errors.New("no editor command configured")
	}

	args := append(l.Command[1:len(l.Command):len(l.Command)], path)

	// Not bound to ctx: the editor outlives the request.
	cmd := exec.Command(l.Command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", l.Command[0], err)
	}

	slog.DebugContext(ctx, "editor started", "command", l.Command[0], "pid", cmd.Process.Pid)

	go func() { _ = cmd.Wait() }()

	return nil
}

type openInEditorRequest struct {
	Content string `json:"content"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// openInEditorHandler writes the posted content to a temp file and opens it
// with launcher. A nil launcher answers 501.
func openInEditorHandler(launcher Launcher, tempDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req openInEditorRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if req.Content == "" {
			writeError(ctx, w, http.StatusBadRequest, "Content cannot be empty")
			return
		}

		if launcher == nil {
			writeError(ctx, w, http.StatusNotImplemented, "Opening files in an editor is not configured")
			return
		}

		path := filepath.Join(tempDir, "code_"+uuid.NewString()+".txt")
		if err := os.WriteFile(path, []byte(req.Content), 0o600); err != nil {
			slog.ErrorContext(ctx, "failed to write temp file", "path", path, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "Failed to open file in editor")
			return
		}

		if err := launcher.Open(ctx, path); err != nil {
			slog.ErrorContext(ctx, "failed to open file in editor", "path", path, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "Failed to open file in editor")
			return
		}

		writeJSON(ctx, w, messageResponse{Message: "File opened in editor"}, http.StatusOK)
	}
}
