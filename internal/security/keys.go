package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrKeyMaterialMissing is returned when a key file does not exist at the configured path.
	ErrKeyMaterialMissing = errors.New("key material missing")
	// ErrKeyMaterialInvalid is returned when PEM or key content cannot be parsed as an RSA key.
	ErrKeyMaterialInvalid = errors.New("key material invalid")
)

// Keypair holds the RSA signing keypair. Immutable after load; safe for
// unsynchronized concurrent reads. Regenerating the keypair invalidates all
// previously issued, not-yet-expired tokens.
type Keypair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// PublicKeyPath derives the public key path from the private key path by
// naming convention ("private" → "public"), matching how the pair is laid
// out on disk.
func PublicKeyPath(privatePath string) string {
	return strings.Replace(privatePath, "private", "public", 1)
}

// LoadKeypair reads and parses both halves of the signing keypair from the
// given PEM files. Returns ErrKeyMaterialMissing when either file is absent
// and ErrKeyMaterialInvalid when parsing fails.
func LoadKeypair(privatePath, publicPath string) (*Keypair, error) {
	privPEM, err := readKeyFile(privatePath)
	if err != nil {
		return nil, err
	}
	pubPEM, err := readKeyFile(publicPath)
	if err != nil {
		return nil, err
	}
	priv, err := parsePrivatePEM(privPEM)
	if err != nil {
		return nil, err
	}
	pub, err := parsePublicPEM(pubPEM)
	if err != nil {
		return nil, err
	}
	return &Keypair{Private: priv, Public: pub}, nil
}

// LoadPublicKey reads and parses only the public half. Used by the discovery
// endpoint, which does not need signing capability.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	pemBytes, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	return parsePublicPEM(pemBytes)
}

// GenerateKeypair creates a fresh RSA-2048 keypair (public exponent 65537)
// and persists both halves as PEM: private as unencrypted PKCS8, public as
// SubjectPublicKeyInfo. Containing directories are created as needed.
// Overwrites existing files.
//
// This is a one-time administrative operation (cmd/keygen); it must never be
// called from request-serving code. The private key file is plaintext on
// disk; protecting it is a deployment concern (secret store, volume
// permissions), not handled here.
func GenerateKeypair(privatePath, publicPath string) (*Keypair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	if err := writeKeyFile(privatePath, privPEM, 0o600); err != nil {
		return nil, err
	}
	if err := writeKeyFile(publicPath, pubPEM, 0o644); err != nil {
		return nil, err
	}

	return &Keypair{Private: priv, Public: &priv.PublicKey}, nil
}

func readKeyFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrKeyMaterialMissing
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyMaterialMissing, path)
		}
		return nil, err
	}
	return b, nil
}

func writeKeyFile(path string, data []byte, mode os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, mode)
}

func parsePrivatePEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrKeyMaterialInvalid
	}
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrKeyMaterialInvalid
		}
		return rsaKey, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
		}
		return key, nil
	default:
		return nil, ErrKeyMaterialInvalid
	}
}

func parsePublicPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrKeyMaterialInvalid
	}
	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, ErrKeyMaterialInvalid
		}
		return rsaKey, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialInvalid, err)
		}
		return key, nil
	default:
		return nil, ErrKeyMaterialInvalid
	}
}
