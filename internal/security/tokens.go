package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeCDPAuth is the fixed "type" claim marking tokens minted for the
// CDP embedded-wallet verifier.
const TokenTypeCDPAuth = "cdp_auth"

var (
	// ErrSigningUnavailable is returned when no private key is loaded; a
	// configuration/deployment defect, never retried.
	ErrSigningUnavailable = errors.New("signing key unavailable")
	// ErrSignatureInvalid is returned when a token is malformed or its
	// signature does not verify against the public key.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrIssuerMismatch is returned when the iss claim does not match the
	// configured issuer.
	ErrIssuerMismatch = errors.New("token issuer mismatch")
	// ErrAudienceMismatch is returned when the aud claim does not contain the
	// configured audience.
	ErrAudienceMismatch = errors.New("token audience mismatch")
	// ErrExpired is returned when the token's expiry has passed.
	ErrExpired = errors.New("token expired")
)

// IdentityClaims is the payload of an identity assertion. Subject is always
// the stable local user id, never the external provider's id.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  string `json:"type"`
}

// TokenProvider issues and verifies RS256-signed identity assertions. The
// keypair is read-only after construction, so a single provider is safe for
// concurrent use across requests.
type TokenProvider struct {
	keypair  *Keypair
	issuer   string
	audience string
	keyID    string
	ttl      time.Duration
}

// NewTokenProvider returns a TokenProvider signing with kp. keyID is embedded
// in the signature header so verifiers can match it against the published
// JWKS entry. kp may have a nil private half when only verification is
// needed; Issue then fails with ErrSigningUnavailable.
func NewTokenProvider(kp *Keypair, issuer, audience, keyID string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{
		keypair:  kp,
		issuer:   issuer,
		audience: audience,
		keyID:    keyID,
		ttl:      ttl,
	}
}

// Issue builds and signs an identity assertion for the user, valid from now
// until now+ttl. Pure CPU work; any failure indicates misconfiguration and is
// surfaced immediately to the caller.
func (p *TokenProvider) Issue(userID, email string, now time.Time) (string, error) {
	if p == nil || p.keypair == nil || p.keypair.Private == nil {
		return "", ErrSigningUnavailable
	}
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Email: email,
		Type:  TokenTypeCDPAuth,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = p.keyID
	signed, err := t.SignedString(p.keypair.Private)
	if err != nil {
		return "", errors.Join(ErrSigningUnavailable, err)
	}
	return signed, nil
}

// Verify validates the token's signature against the public key, then checks
// issuer, audience, and expiry at the given time. Distinct sentinel errors
// identify each failure; callers that don't care can treat any non-nil error
// as "token invalid".
//
// Production verification is delegated to the external consumer via the
// published JWKS; Verify exists for self-testing and diagnostics.
func (p *TokenProvider) Verify(tokenString string, now time.Time) (*IdentityClaims, error) {
	if p == nil || p.keypair == nil || p.keypair.Public == nil {
		return nil, ErrKeyMaterialMissing
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenString, &IdentityClaims{}, func(*jwt.Token) (interface{}, error) {
		return p.keypair.Public, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrSignatureInvalid
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, ErrSignatureInvalid
	}
	if claims.Issuer != p.issuer {
		return nil, ErrIssuerMismatch
	}
	audOK := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOK = true
			break
		}
	}
	if !audOK {
		return nil, ErrAudienceMismatch
	}
	return claims, nil
}
