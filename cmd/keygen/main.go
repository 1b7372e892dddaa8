// keygen generates the RSA signing keypair at the configured paths; run once before first start.
package main

import (
	"fmt"
	"os"

	"openflow/backend/internal/config"
	"openflow/backend/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if _, err := security.LoadKeypair(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath); err == nil {
		fmt.Fprintf(os.Stderr, "keygen: key material already exists at %s; remove it first to regenerate\n", cfg.JWTPrivateKeyPath)
		os.Exit(1)
	}

	if _, err := security.GenerateKeypair(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s and %s\n", cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
}
