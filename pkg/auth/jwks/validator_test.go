package jwks

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/osvaldoandrade/scanq/pkg/auth"
)

func newJWKSServer(t *testing.T, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
		e := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{
				{
					"kty": "RSA",
					"kid": "test-key-1",
					"n":   n,
					"e":   e,
				},
			},
		})
	}))
}

func TestJWKSValidator(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	jwksServer := newJWKSServer(t, &privKey.PublicKey)
	defer jwksServer.Close()

	validator, err := NewValidator(auth.Config{
		JwksURL:     jwksServer.URL,
		Issuer:      "test-issuer",
		Audience:    "scanq",
		ClockSkew:   60 * time.Second,
		HTTPTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	now := time.Now().Unix()
	token := signToken(t, privKey, "test-key-1", map[string]any{
		"iss":   "test-issuer",
		"aud":   "scanq",
		"sub":   "test-user",
		"exp":   now + 3600,
		"iat":   now,
		"email": "test@example.com",
		"scope": "scanq:submit scanq:read",
	})

	claims, err := validator.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if claims.Subject != "test-user" {
		t.Errorf("expected subject 'test-user', got '%s'", claims.Subject)
	}
	if claims.Email != "test@example.com" {
		t.Errorf("expected email 'test@example.com', got '%s'", claims.Email)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer 'test-issuer', got '%s'", claims.Issuer)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "scanq" {
		t.Errorf("expected audience ['scanq'], got %v", claims.Audience)
	}
	if len(claims.Scopes) != 2 || claims.Scopes[0] != "scanq:submit" || claims.Scopes[1] != "scanq:read" {
		t.Errorf("expected scopes ['scanq:submit', 'scanq:read'], got %v", claims.Scopes)
	}
}

func TestJWKSValidatorInvalidIssuer(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	jwksServer := newJWKSServer(t, &privKey.PublicKey)
	defer jwksServer.Close()

	validator, err := NewValidator(auth.Config{
		JwksURL:     jwksServer.URL,
		Issuer:      "test-issuer",
		Audience:    "scanq",
		ClockSkew:   60 * time.Second,
		HTTPTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	now := time.Now().Unix()
	token := signToken(t, privKey, "test-key-1", map[string]any{
		"iss": "wrong-issuer",
		"aud": "scanq",
		"sub": "test-user",
		"exp": now + 3600,
		"iat": now,
	})

	_, err = validator.Validate(token)
	if err == nil {
		t.Fatal("expected error for invalid issuer, got nil")
	}
}

func TestJWKSValidatorInvalidAudience(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	jwksServer := newJWKSServer(t, &privKey.PublicKey)
	defer jwksServer.Close()

	validator, err := NewValidator(auth.Config{
		JwksURL:     jwksServer.URL,
		Issuer:      "test-issuer",
		Audience:    "scanq",
		ClockSkew:   60 * time.Second,
		HTTPTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	now := time.Now().Unix()
	token := signToken(t, privKey, "test-key-1", map[string]any{
		"iss": "test-issuer",
		"aud": "wrong-audience",
		"sub": "test-user",
		"exp": now + 3600,
		"iat": now,
	})

	_, err = validator.Validate(token)
	if err == nil {
		t.Fatal("expected error for invalid audience, got nil")
	}
}

func TestJWKSValidatorExpiredToken(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	jwksServer := newJWKSServer(t, &privKey.PublicKey)
	defer jwksServer.Close()

	validator, err := NewValidator(auth.Config{
		JwksURL:     jwksServer.URL,
		Issuer:      "test-issuer",
		Audience:    "scanq",
		ClockSkew:   1 * time.Second,
		HTTPTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	now := time.Now().Unix()
	token := signToken(t, privKey, "test-key-1", map[string]any{
		"iss": "test-issuer",
		"aud": "scanq",
		"sub": "test-user",
		"exp": now - 3600, // Expired 1 hour ago
		"iat": now - 7200,
	})

	_, err = validator.Validate(token)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestJWKSValidatorFromJSON(t *testing.T) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	jwksServer := newJWKSServer(t, &privKey.PublicKey)
	defer jwksServer.Close()

	raw := json.RawMessage(fmt.Sprintf(`{"jwksUrl":%q,"issuer":"test-issuer","audience":"scanq"}`, jwksServer.URL))
	validator, err := NewValidatorFromJSON(raw)
	if err != nil {
		t.Fatalf("NewValidatorFromJSON: %v", err)
	}

	now := time.Now().Unix()
	token := signToken(t, privKey, "test-key-1", map[string]any{
		"iss": "test-issuer",
		"aud": "scanq",
		"sub": "json-user",
		"exp": now + 3600,
		"iat": now,
	})

	claims, err := validator.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.Subject != "json-user" {
		t.Errorf("expected subject 'json-user', got '%s'", claims.Subject)
	}
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims map[string]any) string {
	t.Helper()
	header := map[string]any{"alg": "RS256", "typ": "JWT", "kid": kid}
	enc := func(v any) string {
		b, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	h := enc(header)
	p := enc(claims)
	signingInput := h + "." + p
	hashed := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	s := base64.RawURLEncoding.EncodeToString(sig)
	return signingInput + "." + s
}
