// Package app wires configuration, provider adapters and the HTTP server
// together and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/aihub/internal/api"
	"github.com/florianilch/aihub/internal/generation"
	"github.com/florianilch/aihub/internal/provider"
	"github.com/florianilch/aihub/internal/provider/elevenlabs"
	"github.com/florianilch/aihub/internal/provider/gemini"
	"github.com/florianilch/aihub/internal/provider/stability"
	"github.com/florianilch/aihub/internal/provider/texttovideo"
	"github.com/florianilch/aihub/internal/retention"
)

const shutdownTimeout = 5 * time.Second

// App orchestrates the lifecycle of the HTTP server and related services.
type App struct {
	address string
	server  *api.Server
	janitor *retention.Janitor
	health  *Health
}

// New builds every adapter from cfg and the server that exposes them.
// Provider API keys must already be resolved.
func New(cfg *Config) (*App, error) {
	providerOpts := []provider.Option{provider.WithTimeout(cfg.Server.UpstreamTimeout)}
	audioDir := cfg.Static.AudioDir()
	p := cfg.Providers

	language := gemini.New(p.Gemini.BaseURL, p.Gemini.APIKey, p.Gemini.Model, providerOpts...)
	images := stability.New(p.Stability.BaseURL, p.Stability.APIKey, p.Stability.Model, providerOpts...)
	speech := elevenlabs.New(p.ElevenLabs.BaseURL, p.ElevenLabs.APIKey, p.ElevenLabs.Voice, p.ElevenLabs.Model,
		audioDir, "/audio", providerOpts...)
	video := texttovideo.New(p.TextToVideo.BaseURL, p.TextToVideo.APIKey, providerOpts...)

	bindings := []generation.Binding{
		{Modality: generation.Text, Provider: gemini.Name, Model: language.Model()},
		{Modality: generation.Image, Provider: stability.Name, Model: images.Model()},
		{Modality: generation.Code, Provider: gemini.Name, Model: language.Model()},
		{Modality: generation.Audio, Provider: elevenlabs.Name, Model: speech.Model()},
		{Modality: generation.Video, Provider: texttovideo.Name, Model: texttovideo.Model},
	}

	serverOpts := []api.Option{
		api.WithBindings(bindings),
		api.WithAudioDir(audioDir),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithMaxRequestBytes(cfg.Server.MaxRequestBytes),
		api.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	}
	if len(cfg.Utils.Editor) > 0 {
		serverOpts = append(serverOpts, api.WithLauncher(api.CommandLauncher{Command: cfg.Utils.Editor}))
	}

	health := NewHealth()

	server, err := api.New(api.Generators{
		Content: generation.NewContentService(language, images),
		Audio:   speech,
		Video:   video,
	}, health, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	var janitor *retention.Janitor
	if cfg.Retention.MaxAge > 0 {
		janitor, err = retention.New(audioDir, cfg.Retention.MaxAge, cfg.Retention.Schedule)
		if err != nil {
			return nil, fmt.Errorf("failed to create audio retention: %w", err)
		}
	}

	return &App{
		address: cfg.Server.Address,
		server:  server,
		janitor: janitor,
		health:  health,
	}, nil
}

// Start starts all services and blocks until ctx is cancelled or a service
// fails. Services are shut down in reverse start order.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	serverErrCh, err := a.server.Start(gCtx, a.address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	if a.janitor != nil {
		a.janitor.Start()
		shutdownFuncs = append(shutdownFuncs, a.janitor.Shutdown)
	}

	// Runtime errors cancel gCtx and trigger shutdown.
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	a.health.SetReady(true)
	slog.InfoContext(gCtx, "application ready")

	runtimeErr := g.Wait()

	a.health.SetReady(false)
	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// Addr returns the server's listening address while running.
func (a *App) Addr() net.Addr {
	return a.server.Addr()
}

// Ready reports whether the application is serving traffic.
func (a *App) Ready() bool {
	return a.health.IsReady()
}
