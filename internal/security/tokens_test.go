package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueVerify_Roundtrip(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := p.Issue("user-1", "alice@example.com", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Valid anywhere inside the lifetime window.
	for _, at := range []time.Time{now, now.Add(time.Minute), now.Add(time.Hour - time.Second)} {
		claims, err := p.Verify(token, at)
		if err != nil {
			t.Fatalf("Verify at %v: %v", at, err)
		}
		if claims.Subject != "user-1" {
			t.Errorf("subject: want user-1, got %q", claims.Subject)
		}
		if claims.Email != "alice@example.com" {
			t.Errorf("email: want alice@example.com, got %q", claims.Email)
		}
		if claims.Type != TokenTypeCDPAuth {
			t.Errorf("type: want %q, got %q", TokenTypeCDPAuth, claims.Type)
		}
	}
}

func TestIssue_ClaimTimes(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := p.Issue("user-1", "alice@example.com", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := p.Verify(token, now)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Errorf("iat: want %v, got %v", now, claims.IssuedAt.Time)
	}
	if want := now.Add(time.Hour); !claims.ExpiresAt.Time.Equal(want) {
		t.Errorf("exp: want %v, got %v", want, claims.ExpiresAt.Time)
	}
}

func TestVerify_Expired(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := p.Issue("user-1", "alice@example.com", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Expiry is exclusive: the token is already invalid at exactly iat+1h.
	for _, at := range []time.Time{now.Add(time.Hour), now.Add(2 * time.Hour)} {
		_, err := p.Verify(token, at)
		if !errors.Is(err, ErrExpired) {
			t.Errorf("Verify at %v: want ErrExpired, got %v", at, err)
		}
	}
}

func TestVerify_IssuerAndAudienceMismatch(t *testing.T) {
	kp, err := NewTestKeypair()
	if err != nil {
		t.Fatalf("NewTestKeypair: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issuerA := NewTokenProvider(kp, "issuer-a", "aud-a", "k1", time.Hour)
	token, err := issuerA.Issue("user-1", "alice@example.com", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wrongIssuer := NewTokenProvider(kp, "issuer-b", "aud-a", "k1", time.Hour)
	if _, err := wrongIssuer.Verify(token, now); !errors.Is(err, ErrIssuerMismatch) {
		t.Errorf("wrong issuer: want ErrIssuerMismatch, got %v", err)
	}

	wrongAudience := NewTokenProvider(kp, "issuer-a", "aud-b", "k1", time.Hour)
	if _, err := wrongAudience.Verify(token, now); !errors.Is(err, ErrAudienceMismatch) {
		t.Errorf("wrong audience: want ErrAudienceMismatch, got %v", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := p.Issue("user-1", "alice@example.com", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token: want 3 segments, got %d", len(parts))
	}
	// Swap the subject inside the payload; signature no longer matches.
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	tampered := strings.Replace(string(payload), "user-1", "user-2", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, err = p.Verify(strings.Join(parts, "."), now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("tampered token: want ErrSignatureInvalid, got %v", err)
	}

	_, err = p.Verify("not-a-token", now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("malformed token: want ErrSignatureInvalid, got %v", err)
	}
}

func TestIssue_KeyIDHeader(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, err := p.Issue("user-1", "alice@example.com", time.Now().UTC())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	headerSeg := strings.SplitN(token, ".", 2)[0]
	headerJSON, err := base64.RawURLEncoding.DecodeString(headerSeg)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if header.Alg != "RS256" {
		t.Errorf("alg: want RS256, got %q", header.Alg)
	}
	if header.Kid != "test-key-1" {
		t.Errorf("kid: want test-key-1, got %q", header.Kid)
	}
}

func TestIssue_SigningUnavailable(t *testing.T) {
	kp, err := NewTestKeypair()
	if err != nil {
		t.Fatalf("NewTestKeypair: %v", err)
	}
	verifyOnly := NewTokenProvider(&Keypair{Public: kp.Public}, "issuer", "aud", "k1", time.Hour)
	if _, err := verifyOnly.Issue("user-1", "a@b.com", time.Now().UTC()); !errors.Is(err, ErrSigningUnavailable) {
		t.Errorf("Issue without private key: want ErrSigningUnavailable, got %v", err)
	}

	var nilProvider *TokenProvider
	if _, err := nilProvider.Issue("user-1", "a@b.com", time.Now().UTC()); !errors.Is(err, ErrSigningUnavailable) {
		t.Errorf("Issue on nil provider: want ErrSigningUnavailable, got %v", err)
	}
}
