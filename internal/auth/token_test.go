package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// writeEnvFile generates a fresh P-256 key and writes a credential env file
// containing it, returning the file path and the key for verification.
func writeEnvFile(t *testing.T, extra string) (string, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	// godotenv expands \n escapes inside double-quoted values.
	escaped := strings.ReplaceAll(string(pemData), "\n", `\n`)
	content := fmt.Sprintf("KEY_NAME=organizations/test/apiKeys/unit\nKEY_SECRET=\"%s\"\n%s", escaped, extra)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path, key
}

func TestGetTokenClaims(t *testing.T) {
	path, key := writeEnvFile(t, "")
	m := NewManager(path, "api.coinbase.com")

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return t0 }

	tok, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if !tok.Expiry.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("Expiry = %v, want %v", tok.Expiry, t0.Add(2*time.Minute))
	}

	parsed, err := jwt.ParseWithClaims(tok.Raw, jwt.MapClaims{}, func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return t0 }))
	if err != nil {
		t.Fatalf("Parsing minted token failed: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["iss"] != "coinbase-cloud" {
		t.Errorf("iss = %v, want coinbase-cloud", claims["iss"])
	}
	if claims["sub"] != "organizations/test/apiKeys/unit" {
		t.Errorf("sub = %v", claims["sub"])
	}
	if claims["uri"] != "GET api.coinbase.com/api/v3/brokerage/accounts" {
		t.Errorf("uri = %v", claims["uri"])
	}
	if parsed.Header["kid"] != "organizations/test/apiKeys/unit" {
		t.Errorf("kid = %v", parsed.Header["kid"])
	}
	nonce, _ := parsed.Header["nonce"].(string)
	if len(nonce) != 64 {
		t.Errorf("nonce length = %d, want 64 hex chars", len(nonce))
	}
}

func TestGetTokenCachesPerMethodAndPath(t *testing.T) {
	path, _ := writeEnvFile(t, "")
	m := NewManager(path, "api.coinbase.com")

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return t0 }

	a, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}
	if a.Raw != b.Raw {
		t.Error("Expected cached token to be reused for the same method and path")
	}

	c, err := m.GetToken("POST", "/api/v3/brokerage/orders", false)
	if err != nil {
		t.Fatal(err)
	}
	if c.Raw == a.Raw {
		t.Error("Expected a distinct token per (method, path) pair")
	}
}

func TestGetTokenRefreshesAfterExpiry(t *testing.T) {
	path, _ := writeEnvFile(t, "")
	m := NewManager(path, "api.coinbase.com")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	a, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(3 * time.Minute)
	b, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}
	if a.Raw == b.Raw {
		t.Error("Expected a new token after the cached one expired")
	}
}

func TestGetTokenForceRefresh(t *testing.T) {
	path, _ := writeEnvFile(t, "")
	m := NewManager(path, "api.coinbase.com")

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return t0 }

	a, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.GetToken("GET", "/api/v3/brokerage/accounts", true)
	if err != nil {
		t.Fatal(err)
	}
	if a.Raw == b.Raw {
		t.Error("Expected forceRefresh to mint a fresh token")
	}
}

func TestRequestHostOverride(t *testing.T) {
	path, _ := writeEnvFile(t, "REQUEST_HOST=sandbox.coinbase.com\n")
	m := NewManager(path, "api.coinbase.com")

	tok, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(tok.Raw, jwt.MapClaims{})
	if err != nil {
		t.Fatal(err)
	}
	uri := parsed.Claims.(jwt.MapClaims)["uri"]
	if uri != "GET sandbox.coinbase.com/api/v3/brokerage/accounts" {
		t.Errorf("uri = %v, want REQUEST_HOST override applied", uri)
	}
}

func TestGetTokenMissingCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("UNRELATED=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KEY_NAME", "")
	t.Setenv("KEY_SECRET", "")

	m := NewManager(path, "api.coinbase.com")
	_, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("Expected ErrCredentialMissing, got %v", err)
	}
}

func TestIsExpired(t *testing.T) {
	path, _ := writeEnvFile(t, "")
	m := NewManager(path, "api.coinbase.com")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	tok, err := m.GetToken("GET", "/api/v3/brokerage/accounts", false)
	if err != nil {
		t.Fatal(err)
	}
	if m.IsExpired(tok.Raw) {
		t.Error("Fresh token reported expired")
	}

	now = now.Add(2*time.Minute + time.Second)
	if !m.IsExpired(tok.Raw) {
		t.Error("Token past its exp claim reported valid")
	}
}

func TestIsExpiredMissingExpClaim(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	noExp := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{"iss": "coinbase-cloud"})
	raw, err := noExp.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	m := NewManager("", "api.coinbase.com")
	if !m.IsExpired(raw) {
		t.Error("Token without an exp claim must be treated as expired")
	}
	if !m.IsExpired("not-a-jwt") {
		t.Error("Unparseable token must be treated as expired")
	}
}
