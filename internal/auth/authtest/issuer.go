// Package authtest runs an in-process identity provider that signs permission
// tokens and serves its key set over HTTP.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// DefaultAudience is the audience tokens are issued for unless overridden.
const DefaultAudience = "coffeeshop"

// Issuer signs RS256 tokens and publishes the matching JWKS.
type Issuer struct {
	t      testing.TB
	server *httptest.Server

	mu      sync.RWMutex
	keys    map[string]*rsa.PrivateKey
	current string
	next    int

	jwksHits      atomic.Int64
	discoveryHits atomic.Int64
}

// TokenOptions customise a single token.
type TokenOptions struct {
	// Permissions is written as the permissions claim. Nil omits the claim.
	Permissions []string
	Audience    string
	Issuer      string
	Subject     string
	ExpiresIn   time.Duration
	IssuedAt    time.Time
	// KeyID overrides the kid header; "-" omits it.
	KeyID string
	// SigningKey signs the token instead of the issuer's current key.
	SigningKey *rsa.PrivateKey
}

// NewIssuer starts the issuer; it is shut down via t.Cleanup.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	iss := &Issuer{t: t, keys: map[string]*rsa.PrivateKey{}}
	iss.current = iss.addKey()

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", iss.serveJWKS)
	mux.HandleFunc("/.well-known/openid-configuration", iss.serveDiscovery)
	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)

	return iss
}

// URL is the issuer identifier, with a trailing slash.
func (i *Issuer) URL() string {
	return i.server.URL + "/"
}

// JWKSURL is the address of the key set document.
func (i *Issuer) JWKSURL() string {
	return i.server.URL + "/.well-known/jwks.json"
}

// JWKSFetches counts key set downloads served so far.
func (i *Issuer) JWKSFetches() int {
	return int(i.jwksHits.Load())
}

// DiscoveryFetches counts discovery document downloads served so far.
func (i *Issuer) DiscoveryFetches() int {
	return int(i.discoveryHits.Load())
}

// KeyID returns the kid of the current signing key.
func (i *Issuer) KeyID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current
}

// Rotate publishes a new signing key next to the existing ones and makes it current.
func (i *Issuer) Rotate() string {
	kid := i.addKey()
	i.mu.Lock()
	i.current = kid
	i.mu.Unlock()
	return kid
}

// PublicKey returns the public half of the current key.
func (i *Issuer) PublicKey() *rsa.PublicKey {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return &i.keys[i.current].PublicKey
}

// Token signs a token with sensible defaults: current key, DefaultAudience, this
// issuer and a one hour lifetime.
func (i *Issuer) Token(opts TokenOptions) string {
	i.t.Helper()

	now := time.Now()
	if !opts.IssuedAt.IsZero() {
		now = opts.IssuedAt
	}
	ttl := opts.ExpiresIn
	if ttl == 0 {
		ttl = time.Hour
	}
	audience := opts.Audience
	if audience == "" {
		audience = DefaultAudience
	}
	issuer := opts.Issuer
	if issuer == "" {
		issuer = i.URL()
	}
	subject := opts.Subject
	if subject == "" {
		subject = "auth0|barista"
	}

	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": subject,
		"aud": audience,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if opts.Permissions != nil {
		claims["permissions"] = opts.Permissions
	}

	i.mu.RLock()
	kid := i.current
	key := i.keys[kid]
	i.mu.RUnlock()

	if opts.SigningKey != nil {
		key = opts.SigningKey
	}
	if opts.KeyID != "" {
		kid = opts.KeyID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "-" {
		token.Header["kid"] = kid
	}

	signed, err := token.SignedString(key)
	require.NoError(i.t, err)
	return signed
}

// Bearer returns a complete Authorization header value.
func (i *Issuer) Bearer(opts TokenOptions) string {
	return "Bearer " + i.Token(opts)
}

// NewKey generates an RSA key that the issuer does not publish.
func NewKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func (i *Issuer) addKey() string {
	key := NewKey(i.t)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.next++
	kid := fmt.Sprintf("test-key-%d", i.next)
	i.keys[kid] = key
	return kid
}

func (i *Issuer) serveJWKS(w http.ResponseWriter, _ *http.Request) {
	i.jwksHits.Add(1)

	i.mu.RLock()
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(i.keys))}
	for kid, key := range i.keys {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       &key.PublicKey,
			KeyID:     kid,
			Algorithm: "RS256",
			Use:       "sig",
		})
	}
	i.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

func (i *Issuer) serveDiscovery(w http.ResponseWriter, _ *http.Request) {
	i.discoveryHits.Add(1)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                                i.URL(),
		"authorization_endpoint":                i.server.URL + "/authorize",
		"token_endpoint":                        i.server.URL + "/oauth/token",
		"jwks_uri":                              i.JWKSURL(),
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}
