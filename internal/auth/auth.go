package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"duet/internal/models"

	"github.com/c-pro/geche"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenExpiry = 24 * time.Hour
	DefaultIssuer      = "duet"
)

// Verifier turns an opaque credential into a stable user ID.
type Verifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}

type Config struct {
	Secret      string        `json:"secret"`
	Issuer      string        `json:"issuer"`
	TokenExpiry time.Duration `json:"tokenExpiry"`
}

func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("secret is required")
	}

	if c.TokenExpiry == 0 {
		c.TokenExpiry = DefaultTokenExpiry
	}

	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}

	return nil
}

// Claims is the token payload. The user ID lives under "userId".
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 access tokens.
type JWTService struct {
	Config
	secret []byte
	now    func() time.Time
}

func NewJWTService(config Config) (*JWTService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &JWTService{
		Config: config,
		secret: []byte(config.Secret),
		now:    time.Now,
	}, nil
}

// Issue signs a token for userID and returns it with its expiry time.
func (s *JWTService) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.TokenExpiry)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *JWTService) Verify(_ context.Context, credential string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("%w: missing credential", models.ErrUnauthenticated)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	if claims.UserID == "" {
		return "", fmt.Errorf("%w: token has no user id", models.ErrUnauthenticated)
	}

	return claims.UserID, nil
}

// CachingVerifier remembers successful verifications for a short TTL so that
// reconnect storms and per-request HTTP checks do not re-parse the same token.
// Failures are never cached.
type CachingVerifier struct {
	next  Verifier
	cache geche.Geche[string, string]
	log   *slog.Logger
}

func NewCachingVerifier(ctx context.Context, next Verifier, ttl time.Duration, log *slog.Logger) *CachingVerifier {
	cleanup := ttl
	if cleanup <= 0 || cleanup > time.Minute {
		cleanup = time.Minute
	}
	return &CachingVerifier{
		next:  next,
		cache: geche.NewMapTTLCache[string, string](ctx, ttl, cleanup),
		log:   log,
	}
}

func (v *CachingVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if userID, err := v.cache.Get(credential); err == nil {
		return userID, nil
	}

	userID, err := v.next.Verify(ctx, credential)
	if err != nil {
		v.log.Debug("credential rejected", "error", err)
		return "", err
	}

	v.cache.Set(credential, userID)
	return userID, nil
}
