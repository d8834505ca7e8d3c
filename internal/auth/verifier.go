package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/charlesng35/coffeeshop/pkg/metrics"
)

// DefaultAlgorithms lists the signing algorithms accepted when none are configured.
var DefaultAlgorithms = []string{"RS256"}

// VerifierConfig bundles the claim expectations applied to every token.
type VerifierConfig struct {
	Audience   string
	Issuer     string
	Algorithms []string
	Leeway     time.Duration
	Clock      func() time.Time
}

// Verifier validates permission tokens presented as bearer credentials.
type Verifier struct {
	keys   KeySource
	parser *jwt.Parser
}

// NewVerifier constructs a Verifier that resolves signing keys through keys.
func NewVerifier(keys KeySource, cfg VerifierConfig) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("auth: key source is required")
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, errors.New("auth: audience is required")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errors.New("auth: issuer is required")
	}

	algorithms := cfg.Algorithms
	if len(algorithms) == 0 {
		algorithms = DefaultAlgorithms
	}
	for _, alg := range algorithms {
		if strings.HasPrefix(strings.ToUpper(alg), "HS") || strings.EqualFold(alg, "none") {
			return nil, fmt.Errorf("auth: algorithm %q is not an asymmetric signing method", alg)
		}
		if jwt.GetSigningMethod(alg) == nil {
			return nil, fmt.Errorf("auth: unknown signing algorithm %q", alg)
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algorithms),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithIssuer(issuer),
	}
	if cfg.Clock != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Clock))
	}

	return &Verifier{
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify checks the Authorization header value and that the token grants permission.
// Rejections are returned as *Error; any other error means the signing keys could not
// be obtained.
func (v *Verifier) Verify(ctx context.Context, header, permission string) (*Claims, error) {
	claims, err := v.verify(ctx, header, permission)
	metrics.TokenVerifications.WithLabelValues(resultLabel(err)).Inc()
	return claims, err
}

func (v *Verifier) verify(ctx context.Context, header, permission string) (*Claims, error) {
	token, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	claims, err := v.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := CheckPermission(claims, permission); err != nil {
		metrics.PermissionChecks.WithLabelValues(permission, "denied").Inc()
		return nil, err
	}
	metrics.PermissionChecks.WithLabelValues(permission, "allowed").Inc()
	return claims, nil
}

// ParseHeader extracts the raw token from a "Bearer <token>" header value.
func ParseHeader(header string) (string, error) {
	if header == "" {
		return "", errHeaderMissing()
	}

	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", errHeaderMissing()
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", errHeaderNotBearer()
	}
	if len(parts) == 1 {
		return "", errTokenMissing()
	}
	if len(parts) > 2 {
		return "", errHeaderTooLong()
	}
	return parts[1], nil
}

// VerifyToken checks the signature and registered claims of token and requires a
// permissions claim.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	kid, err := v.keyID(token)
	if err != nil {
		return nil, err
	}

	key, err := v.keys.Lookup(ctx, kid)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, errKeyNotFound(err)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: resolve signing key: %w", err)
	}

	var claims Claims
	_, err = v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if claims.Permissions == nil {
		return nil, errPermissionsMissing()
	}
	return &claims, nil
}

// CheckPermission returns an *Error unless claims grant permission.
func CheckPermission(claims *Claims, permission string) error {
	if claims == nil || claims.Permissions == nil {
		return errPermissionsMissing()
	}
	if !claims.HasPermission(permission) {
		return errPermissionDenied()
	}
	return nil
}

// keyID reads the kid from the unverified token header.
func (v *Verifier) keyID(token string) (string, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return "", errMalformed(jwt.ErrTokenMalformed)
	}

	raw, err := v.parser.DecodeSegment(segments[0])
	if err != nil {
		return "", errMalformed(err)
	}

	var header struct {
		KeyID string `json:"kid"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", errMalformed(err)
	}
	if header.KeyID == "" {
		return "", errMalformed(nil)
	}
	return header.KeyID, nil
}

func classifyParseError(err error) *Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errExpired(err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return errIncorrectClaims(err)
	default:
		return errUnparseable(err)
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return "error"
}
