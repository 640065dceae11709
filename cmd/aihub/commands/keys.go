package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/aihub/internal/app"
	"github.com/florianilch/aihub/internal/keystore"
)

// keysCommand returns the 'keys' subcommand for managing stored provider keys.
func keysCommand() *cli.Command {
	usage := "provider (" + strings.Join(app.ProviderNames(), "|") + ")"

	return &cli.Command{
		Name:  "keys",
		Usage: "Manage provider API keys in the OS keyring",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store an API key for a provider",
				ArgsUsage: usage,
				Action:    keysSetAction,
			},
			{
				Name:      "clear",
				Usage:     "Remove the stored API key of a provider",
				ArgsUsage: usage,
				Action:    keysClearAction,
			},
		},
	}
}

// writableStore returns the configured key store and the provider argument,
// refusing read-only config storage.
func writableStore(cmd *cli.Command) (keystore.Store, string, error) {
	providerName := cmd.Args().First()
	if !slices.Contains(app.ProviderNames(), providerName) {
		return nil, "", fmt.Errorf("unknown provider %q (expected one of: %s)",
			providerName, strings.Join(app.ProviderNames(), ", "))
	}

	cfg, err := loadConfig(cmd, os.Environ)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	store := cfg.Auth.NewKeyStore()
	if store == nil {
		return nil, "", errors.New("cannot modify keys with config storage (read-only). Set auth.storage = \"keyring\"")
	}

	return store, providerName, nil
}

func keysSetAction(ctx context.Context, cmd *cli.Command) error {
	store, providerName, err := writableStore(cmd)
	if err != nil {
		return err
	}

	key, err := readSecureInput(ctx, fmt.Sprintf("Enter %s API key: ", providerName))
	if err != nil {
		return err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	if err := store.Write(ctx, providerName, key); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}

	fmt.Printf("%s API key saved to keyring\n", providerName)
	return nil
}

func keysClearAction(ctx context.Context, cmd *cli.Command) error {
	store, providerName, err := writableStore(cmd)
	if err != nil {
		return err
	}

	// An empty write removes the entry.
	if err := store.Write(ctx, providerName, ""); err != nil {
		return fmt.Errorf("failed to clear key: %w", err)
	}

	fmt.Printf("%s API key removed from keyring\n", providerName)
	return nil
}

// readSecureInput reads a line without echo. term.ReadPassword cannot be
// cancelled, so the read runs in a goroutine and ctx is watched alongside it.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		input, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(input), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
