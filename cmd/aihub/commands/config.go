package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/aihub/internal/app"
)

// loadConfig loads the configuration and applies flags the user set
// explicitly on top of file and environment values.
func loadConfig(cmd *cli.Command, environ func() []string) (*app.Config, error) {
	overrides := map[string]any{}
	if cmd.IsSet("log-level") {
		overrides["log.level"] = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		overrides["log.format"] = cmd.String("log-format")
	}
	if cmd.IsSet("address") {
		overrides["server.address"] = cmd.String("address")
	}

	return app.LoadConfig(cmd.String("config"), environ, overrides)
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the configuration",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Validate the configuration and provider keys without starting the server",
				Action: configCheckAction,
			},
		},
	}
}

func configCheckAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ResolveAPIKeys(ctx, cfg.Auth.NewKeyStore()); err != nil {
		return err
	}

	w := cmd.Root().Writer
	_, _ = fmt.Fprintln(w, "Configuration OK")
	_, _ = fmt.Fprintf(w, "  listen address:   %s\n", cfg.Server.Address)
	_, _ = fmt.Fprintf(w, "  upstream timeout: %s\n", cfg.Server.UpstreamTimeout)
	_, _ = fmt.Fprintf(w, "  audio directory:  %s\n", cfg.Static.AudioDir())
	_, _ = fmt.Fprintf(w, "  key storage:      %s\n", cfg.Auth.Storage)
	if cfg.Retention.MaxAge > 0 {
		_, _ = fmt.Fprintf(w, "  audio retention:  %s (%s)\n", cfg.Retention.MaxAge, cfg.Retention.Schedule)
	} else {
		_, _ = fmt.Fprintln(w, "  audio retention:  disabled")
	}

	return nil
}
