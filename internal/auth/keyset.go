package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"go.uber.org/zap"

	"github.com/charlesng35/coffeeshop/pkg/logger"
	"github.com/charlesng35/coffeeshop/pkg/metrics"
)

const (
	defaultHTTPTimeout        = 10 * time.Second
	defaultMinRefreshInterval = time.Minute
	maxKeySetSize             = 1 << 20
)

// ErrKeyNotFound is returned when no signing key matches a key id.
var ErrKeyNotFound = errors.New("auth: signing key not found")

// KeySource resolves the public key used to verify a token signed with kid.
type KeySource interface {
	Lookup(ctx context.Context, kid string) (any, error)
}

// StaticKeySet serves a fixed set of keys.
type StaticKeySet map[string]any

// Lookup implements KeySource.
func (s StaticKeySet) Lookup(_ context.Context, kid string) (any, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// RemoteKeySetConfig configures a RemoteKeySet.
type RemoteKeySetConfig struct {
	// JWKSURL is used as-is when set. Otherwise it is discovered from Issuer.
	JWKSURL    string
	Issuer     string
	HTTPClient *http.Client
	Timeout    time.Duration
	// RefreshOnUnknownKID re-downloads the key set when a token names a key that is
	// not cached, at most once per MinRefreshInterval.
	RefreshOnUnknownKID bool
	MinRefreshInterval  time.Duration
	Clock               func() time.Time
}

// RemoteKeySet downloads an identity provider's JSON Web Key Set on first use and
// keeps it in memory.
type RemoteKeySet struct {
	cfg    RemoteKeySetConfig
	client *http.Client
	now    func() time.Time

	fetchMu sync.Mutex

	mu        sync.RWMutex
	jwksURL   string
	keys      map[string]any
	loaded    bool
	lastFetch time.Time
}

// NewRemoteKeySet validates cfg and returns an empty key set. Nothing is fetched yet.
func NewRemoteKeySet(cfg RemoteKeySetConfig) (*RemoteKeySet, error) {
	cfg.JWKSURL = strings.TrimSpace(cfg.JWKSURL)
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.JWKSURL == "" && cfg.Issuer == "" {
		return nil, errors.New("auth: jwks url or issuer is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = defaultMinRefreshInterval
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &RemoteKeySet{
		cfg:     cfg,
		client:  client,
		now:     now,
		jwksURL: cfg.JWKSURL,
	}, nil
}

// Lookup implements KeySource. The first call downloads the key set.
func (s *RemoteKeySet) Lookup(ctx context.Context, kid string) (any, error) {
	key, loaded, found := s.cached(kid)
	if found {
		return key, nil
	}

	if !loaded {
		if err := s.loadOnce(ctx); err != nil {
			return nil, err
		}
		if key, _, found = s.cached(kid); found {
			return key, nil
		}
	}

	if s.cfg.RefreshOnUnknownKID && s.refreshDue() {
		logger.WithModule("auth").Info("unknown signing key, refreshing key set", zap.String("kid", kid))
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		if key, _, found = s.cached(kid); found {
			return key, nil
		}
	}

	return nil, ErrKeyNotFound
}

// Refresh downloads the key set and replaces the cached keys. On failure the
// previous keys stay in place.
func (s *RemoteKeySet) Refresh(ctx context.Context) error {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()
	return s.fetch(ctx)
}

// KeyCount returns the number of cached keys.
func (s *RemoteKeySet) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Loaded reports whether the key set has been downloaded at least once.
func (s *RemoteKeySet) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *RemoteKeySet) cached(kid string) (key any, loaded bool, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, found = s.keys[kid]
	return key, s.loaded, found
}

func (s *RemoteKeySet) refreshDue() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().Sub(s.lastFetch) >= s.cfg.MinRefreshInterval
}

// loadOnce fetches unless another caller finished a fetch while we waited for the lock.
func (s *RemoteKeySet) loadOnce(ctx context.Context) error {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	if s.Loaded() {
		return nil
	}
	return s.fetch(ctx)
}

// fetch must be called with fetchMu held.
func (s *RemoteKeySet) fetch(ctx context.Context) (err error) {
	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
			logger.WithModule("auth").Warn("signing key set fetch failed", zap.Error(err))
		}
		metrics.KeySetFetches.WithLabelValues(result).Inc()
	}()

	ctx, cancel := context.WithTimeout(ensureContext(ctx), s.cfg.Timeout)
	defer cancel()

	url, err := s.resolveURL(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("auth: build jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetSize)).Decode(&set); err != nil {
		return fmt.Errorf("auth: decode jwks: %w", err)
	}

	keys := signingKeys(set)
	if len(keys) == 0 {
		return errors.New("auth: jwks contains no usable signing keys")
	}

	s.mu.Lock()
	s.keys = keys
	s.loaded = true
	s.lastFetch = s.now()
	s.mu.Unlock()

	metrics.CachedSigningKeys.Set(float64(len(keys)))
	logger.WithModule("auth").Info("signing key set loaded",
		zap.String("url", url),
		zap.Int("keys", len(keys)),
	)
	return nil
}

func (s *RemoteKeySet) resolveURL(ctx context.Context) (string, error) {
	s.mu.RLock()
	url := s.jwksURL
	s.mu.RUnlock()
	if url != "" {
		return url, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, s.client), s.cfg.Issuer)
	if err != nil {
		return "", fmt.Errorf("auth: oidc discovery failed: %w", err)
	}

	var discovery struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&discovery); err != nil {
		return "", fmt.Errorf("auth: decode discovery document: %w", err)
	}
	if strings.TrimSpace(discovery.JWKSURL) == "" {
		return "", errors.New("auth: discovery document has no jwks_uri")
	}

	s.mu.Lock()
	s.jwksURL = discovery.JWKSURL
	s.mu.Unlock()
	return discovery.JWKSURL, nil
}

func signingKeys(set jose.JSONWebKeySet) map[string]any {
	keys := make(map[string]any, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.KeyID == "" {
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		public := jwk.Public()
		if !public.Valid() {
			continue
		}
		keys[jwk.KeyID] = public.Key
	}
	return keys
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
