package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass distinguishes the two bearer credentials the service mints.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

const (
	defaultIssuer   = "boxuemingti"
	defaultAudience = "boxuemingti-web"

	defaultAccessTTL   = time.Hour
	defaultRefreshTTL  = 7 * 24 * time.Hour
	defaultRememberTTL = 30 * 24 * time.Hour
)

// Claims is the verified payload of an issued token.
type Claims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// Class returns the token class claim.
func (c *Claims) Class() TokenClass {
	return TokenClass(c.TokenUse)
}

// TokenIssuer mints and verifies stateless HS256 tokens. Validity is
// entirely signature plus embedded claims; nothing is persisted, so a token
// cannot be revoked before its expiry.
type TokenIssuer struct {
	secret      []byte
	issuer      string
	audience    string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithIssuer overrides the iss claim literal.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			t.issuer = issuer
		}
	}
}

// WithAudience overrides the aud claim literal.
func WithAudience(audience string) TokenOption {
	return func(t *TokenIssuer) {
		if audience = strings.TrimSpace(audience); audience != "" {
			t.audience = audience
		}
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.refreshTTL = ttl
		}
	}
}

// WithRememberTTL configures the extended refresh lifetime applied when a
// login carries the remember-me flag.
func WithRememberTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.rememberTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokenIssuer constructs a TokenIssuer around a server-held secret.
func NewTokenIssuer(secret string, opts ...TokenOption) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	t := &TokenIssuer{
		secret:      []byte(secret),
		issuer:      defaultIssuer,
		audience:    defaultAudience,
		accessTTL:   defaultAccessTTL,
		refreshTTL:  defaultRefreshTTL,
		rememberTTL: defaultRememberTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// AccessTTL reports the configured access token lifetime.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// Issue signs a token of the given class for the subject. rememberMe only
// affects refresh tokens, extending their lifetime.
func (t *TokenIssuer) Issue(userID string, class TokenClass, rememberMe bool) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	var ttl time.Duration
	switch class {
	case TokenClassAccess:
		ttl = t.accessTTL
	case TokenClassRefresh:
		ttl = t.refreshTTL
		if rememberMe {
			ttl = t.rememberTTL
		}
	default:
		return "", time.Time{}, fmt.Errorf("%w: unknown token class %q", ErrInvalidInput, class)
	}

	now := t.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		TokenUse: string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, issuer, audience, expiry and token class. All
// failures collapse to ErrTokenInvalid for callers; the wrapped reason is
// only for logs.
func (t *TokenIssuer) Verify(raw string, want TokenClass) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalidToken("empty")
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }),
	)
	if err != nil {
		return nil, invalidToken(classifyJWTError(err))
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, invalidToken("claims")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, invalidToken("subject missing")
	}
	if claims.Class() != want {
		return nil, invalidToken("class mismatch")
	}
	return claims, nil
}

func invalidToken(reason string) error {
	return fmt.Errorf("%w (%s)", ErrTokenInvalid, reason)
}

// classifyJWTError maps library failures onto the small taxonomy the logs
// use: malformed, signature, expired, claims.
func classifyJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "claims"
	default:
		return "invalid"
	}
}
