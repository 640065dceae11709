// Package keystore persists provider API keys outside the configuration file.
//
// A Store holds one secret per provider name. Writing an empty string removes
// the entry, so callers can clear a key without a separate delete operation:
//
//	store := keystore.NewKeyring(keystore.DefaultService)
//	_ = store.Write(ctx, "gemini", apiKey) // save
//	key, err := store.Read(ctx, "gemini")  // load; ErrNotFound when absent
//	_ = store.Write(ctx, "gemini", "")     // clear
package keystore
