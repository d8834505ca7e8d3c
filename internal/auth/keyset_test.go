package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/coffeeshop/internal/auth/authtest"
)

func TestRemoteKeySetDiscoversJWKSFromIssuer(t *testing.T) {
	issuer := authtest.NewIssuer(t)

	keys, err := NewRemoteKeySet(RemoteKeySetConfig{Issuer: issuer.URL()})
	require.NoError(t, err)

	key, err := keys.Lookup(context.Background(), issuer.KeyID())
	require.NoError(t, err)
	require.Equal(t, issuer.PublicKey(), key)
	require.Equal(t, 1, issuer.DiscoveryFetches())
	require.Equal(t, 1, issuer.JWKSFetches())

	require.NoError(t, keys.Refresh(context.Background()))
	require.Equal(t, 1, issuer.DiscoveryFetches(), "discovered url is reused")
	require.Equal(t, 2, issuer.JWKSFetches())
}

func TestRemoteKeySetUnknownKidWithoutRefresh(t *testing.T) {
	issuer := authtest.NewIssuer(t)

	keys, err := NewRemoteKeySet(RemoteKeySetConfig{JWKSURL: issuer.JWKSURL()})
	require.NoError(t, err)

	_, err = keys.Lookup(context.Background(), issuer.KeyID())
	require.NoError(t, err)

	rotated := issuer.Rotate()
	_, err = keys.Lookup(context.Background(), rotated)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, 1, issuer.JWKSFetches())
}

func TestRemoteKeySetRefreshesOnUnknownKid(t *testing.T) {
	issuer := authtest.NewIssuer(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	keys, err := NewRemoteKeySet(RemoteKeySetConfig{
		JWKSURL:             issuer.JWKSURL(),
		RefreshOnUnknownKID: true,
		MinRefreshInterval:  time.Minute,
		Clock:               func() time.Time { return now },
	})
	require.NoError(t, err)

	_, err = keys.Lookup(context.Background(), issuer.KeyID())
	require.NoError(t, err)

	rotated := issuer.Rotate()

	_, err = keys.Lookup(context.Background(), rotated)
	require.ErrorIs(t, err, ErrKeyNotFound, "refresh is rate limited")
	require.Equal(t, 1, issuer.JWKSFetches())

	now = now.Add(2 * time.Minute)
	key, err := keys.Lookup(context.Background(), rotated)
	require.NoError(t, err)
	require.Equal(t, issuer.PublicKey(), key)
	require.Equal(t, 2, issuer.JWKSFetches())
	require.Equal(t, 2, keys.KeyCount())
}

func TestRemoteKeySetKeepsKeysWhenRefreshFails(t *testing.T) {
	issuer := authtest.NewIssuer(t)
	var healthy atomic.Bool
	healthy.Store(true)
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		resp, err := http.Get(issuer.JWKSURL())
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.Copy(w, resp.Body)
	}))
	t.Cleanup(proxy.Close)

	keys, err := NewRemoteKeySet(RemoteKeySetConfig{JWKSURL: proxy.URL})
	require.NoError(t, err)
	require.NoError(t, keys.Refresh(context.Background()))
	require.Equal(t, 1, keys.KeyCount())

	healthy.Store(false)
	require.Error(t, keys.Refresh(context.Background()))

	key, err := keys.Lookup(context.Background(), issuer.KeyID())
	require.NoError(t, err)
	require.NotNil(t, key)
}

func TestRemoteKeySetRejectsEmptyDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"keys":[]}`))
	}))
	t.Cleanup(server.Close)

	keys, err := NewRemoteKeySet(RemoteKeySetConfig{JWKSURL: server.URL})
	require.NoError(t, err)

	_, err = keys.Lookup(context.Background(), "any")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrKeyNotFound)
	require.False(t, keys.Loaded())
}

func TestNewRemoteKeySetRequiresLocation(t *testing.T) {
	_, err := NewRemoteKeySet(RemoteKeySetConfig{})
	require.Error(t, err)
}
