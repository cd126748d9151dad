package auth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// ErrCredentialMissing indicates the key name or key material is absent from
// the credential source. Fatal to the step; never retried silently.
var ErrCredentialMissing = errors.New("auth: missing KEY_NAME or KEY_SECRET in credential source")

const (
	issuer   = "coinbase-cloud"
	tokenTTL = 2 * time.Minute
	// 32 bytes of entropy, hex-encoded to 64 chars
	nonceBytes = 32
)

// Token is a short-lived signed bearer credential. Regenerated, never mutated,
// on expiry.
type Token struct {
	Raw    string
	Expiry time.Time
}

// Manager mints and caches signed JWTs for the exchange API. Tokens are bound
// to the HTTP method and path they authorize, so a distinct token is minted
// and cached per (method, path) pair. Single writer: only the Manager replaces
// cache entries, and always wholesale.
type Manager struct {
	envPath string
	host    string

	now func() time.Time

	mu    sync.Mutex
	cache map[string]Token
}

// NewManager creates a token manager reading credentials from the env file at
// envPath. host is the request host baked into the uri claim; the REQUEST_HOST
// credential entry overrides it.
func NewManager(envPath, host string) *Manager {
	return &Manager{
		envPath: envPath,
		host:    host,
		now:     time.Now,
		cache:   make(map[string]Token),
	}
}

// GetToken returns a token authorizing method+path, reusing the cached one
// while it is still valid. forceRefresh mints a new token unconditionally.
func (m *Manager) GetToken(method, path string, forceRefresh bool) (Token, error) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	if !forceRefresh {
		if tok, ok := m.cache[key]; ok && m.now().Before(tok.Expiry) {
			return tok, nil
		}
	}

	tok, err := m.mint(method, path)
	if err != nil {
		return Token{}, err
	}
	m.cache[key] = tok
	return tok, nil
}

// Token is shorthand for GetToken without a forced refresh.
func (m *Manager) Token(method, path string) (Token, error) {
	return m.GetToken(method, path, false)
}

func (m *Manager) mint(method, path string) (Token, error) {
	name, secret, host, err := m.credentials()
	if err != nil {
		return Token{}, err
	}
	if host == "" {
		host = m.host
	}

	key, err := parseECPrivateKey(secret)
	if err != nil {
		return Token{}, errors.Wrap(err, "auth: loading EC private key")
	}

	nonce, err := newNonce()
	if err != nil {
		return Token{}, errors.Wrap(err, "auth: generating nonce")
	}

	now := m.now()
	expiry := now.Add(tokenTTL)
	uri := fmt.Sprintf("%s %s%s", method, host, path)

	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": name,
		"nbf": now.Unix(),
		"exp": expiry.Unix(),
		"uri": uri,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = name
	tok.Header["nonce"] = nonce

	raw, err := tok.SignedString(key)
	if err != nil {
		return Token{}, errors.Wrap(err, "auth: signing token")
	}
	return Token{Raw: raw, Expiry: expiry}, nil
}

// credentials reads KEY_NAME, KEY_SECRET and REQUEST_HOST from the env file,
// falling back to process environment variables for anything unset there.
func (m *Manager) credentials() (name, secret, host string, err error) {
	vals := map[string]string{}
	if m.envPath != "" {
		if fileVals, rerr := godotenv.Read(m.envPath); rerr == nil {
			vals = fileVals
		}
	}
	get := func(key string) string {
		if v, ok := vals[key]; ok && v != "" {
			return v
		}
		return os.Getenv(key)
	}

	name = get("KEY_NAME")
	secret = get("KEY_SECRET")
	host = get("REQUEST_HOST")
	if name == "" || secret == "" {
		return "", "", "", ErrCredentialMissing
	}
	return name, secret, host, nil
}

// IsExpired reports whether the raw token's exp claim has passed. A token with
// no exp claim is treated as expired: fail safe.
func (m *Manager) IsExpired(raw string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	tok, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return m.now().After(exp.Time)
}

func newNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// parseECPrivateKey accepts SEC1 ("EC PRIVATE KEY") and PKCS#8 PEM blocks.
func parseECPrivateKey(pemData string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found in KEY_SECRET")
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("KEY_SECRET is not an EC private key")
	}
	return key, nil
}
