package app

import (
	"strings"

	"github.com/charlesng35/coffeeshop/internal/auth"
)

// KeySetConfig converts AuthConfig into the parameters of the remote signing key set.
func (c AuthConfig) KeySetConfig() auth.RemoteKeySetConfig {
	return auth.RemoteKeySetConfig{
		JWKSURL:             strings.TrimSpace(c.JWKSURL),
		Issuer:              strings.TrimSpace(c.Issuer),
		Timeout:             c.HTTPTimeout,
		RefreshOnUnknownKID: c.KeyRefresh.OnUnknownKID,
		MinRefreshInterval:  c.KeyRefresh.MinInterval,
	}
}

// VerifierConfig converts AuthConfig into the claim expectations of the token verifier.
func (c AuthConfig) VerifierConfig() auth.VerifierConfig {
	var algorithms []string
	for _, alg := range c.Algorithms {
		if alg = strings.TrimSpace(alg); alg != "" {
			algorithms = append(algorithms, alg)
		}
	}

	return auth.VerifierConfig{
		Audience:   strings.TrimSpace(c.Audience),
		Issuer:     strings.TrimSpace(c.Issuer),
		Algorithms: algorithms,
		Leeway:     c.Leeway,
	}
}
