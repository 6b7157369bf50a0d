// Package auth verifies user access tokens issued by the document platform.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Identity is the authenticated user extracted from a verified token.
type Identity struct {
	ID    string
	Email string
	// Token is the raw bearer token, forwarded to per-user storage queries.
	Token string
}

// Config holds verification settings.
type Config struct {
	Secret   string `yaml:"secret" json:"secret"`
	Audience string `yaml:"audience" json:"audience"`
	Issuer   string `yaml:"issuer" json:"issuer"`
}

// DefaultConfig returns the default verification settings.
func DefaultConfig() Config {
	return Config{Audience: "authenticated"}
}

// Verifier validates HS256 bearer tokens and extracts the caller identity.
type Verifier struct {
	secret     []byte
	parserOpts []jwt.ParserOption
	logger     *zap.Logger
}

// NewVerifier creates a token verifier.
func NewVerifier(cfg Config, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Verifier{
		secret:     []byte(cfg.Secret),
		parserOpts: parserOpts,
		logger:     logger.With(zap.String("component", "auth")),
	}
}

// Verify parses and validates a bearer token. The "Bearer " prefix is
// accepted and stripped.
func (v *Verifier) Verify(tokenStr string) (*Identity, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	keyFunc := func(token *jwt.Token) (any, error) {
		if len(v.secret) == 0 {
			return nil, fmt.Errorf("HMAC secret not configured")
		}
		return v.secret, nil
	}

	token, err := jwt.Parse(tokenStr, keyFunc, v.parserOpts...)
	if err != nil {
		v.logger.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}

	ident := &Identity{ID: sub, Token: tokenStr}
	if email, ok := claims["email"].(string); ok {
		ident.Email = email
	}
	return ident, nil
}
