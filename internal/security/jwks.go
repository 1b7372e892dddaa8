package security

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"
)

// JWK is a published RSA signing key in JSON Web Key form (RFC 7517).
// Modulus and exponent are minimal big-endian bytes, base64url-encoded
// without padding.
type JWK struct {
	KeyType   string `json:"kty"`
	Use       string `json:"use"`
	KeyID     string `json:"kid"`
	Algorithm string `json:"alg"`
	Modulus   string `json:"n"`
	Exponent  string `json:"e"`
}

// JWKS is the key set served at /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Descriptor derives the JWK for pub. Deterministic for a given key, free of
// side effects, and safe to call concurrently; results may be cached with a
// short TTL. Returns ErrKeyMaterialMissing when pub is nil so the boundary
// layer can answer service-unavailable instead of publishing an empty set.
func Descriptor(pub *rsa.PublicKey, keyID string) (JWK, error) {
	if pub == nil || pub.N == nil {
		return JWK{}, ErrKeyMaterialMissing
	}
	// big.Int.Bytes is already minimal big-endian: no leading zero bytes.
	n := pub.N.Bytes()
	e := big.NewInt(int64(pub.E)).Bytes()
	return JWK{
		KeyType:   "RSA",
		Use:       "sig",
		KeyID:     keyID,
		Algorithm: "RS256",
		Modulus:   base64.RawURLEncoding.EncodeToString(n),
		Exponent:  base64.RawURLEncoding.EncodeToString(e),
	}, nil
}

// KeySet wraps Descriptor in the {"keys": [...]} envelope external verifiers
// poll. There is a single static key id; no rotation or versioning.
func KeySet(pub *rsa.PublicKey, keyID string) (JWKS, error) {
	jwk, err := Descriptor(pub, keyID)
	if err != nil {
		return JWKS{}, err
	}
	return JWKS{Keys: []JWK{jwk}}, nil
}
