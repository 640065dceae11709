package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name entries are stored under.
const DefaultService = "aihub"

// ErrNotFound is returned by Read when no key is stored for a provider.
var ErrNotFound = errors.New("key not found")

// Store reads and writes API keys by provider name.
type Store interface {
	Read(ctx context.Context, provider string) (string, error)
	// Write stores key for provider. An empty key removes the entry.
	Write(ctx context.Context, provider, key string) error
}

// Keyring stores keys in the operating system keyring, one entry per provider.
type Keyring struct {
	service string
}

var _ Store = (*Keyring)(nil)

// NewKeyring returns a keyring-backed Store for service.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

func (k *Keyring) Read(ctx context.Context, provider string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := keyring.Get(k.service, provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s key from keyring: %w", provider, err)
	}

	return key, nil
}

func (k *Keyring) Write(ctx context.Context, provider, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		err := keyring.Delete(k.service, provider)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("deleting %s key from keyring: %w", provider, err)
		}
		return nil
	}

	if err := keyring.Set(k.service, provider, key); err != nil {
		return fmt.Errorf("writing %s key to keyring: %w", provider, err)
	}

	return nil
}
