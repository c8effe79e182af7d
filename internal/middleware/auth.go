package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"

	"media-tracker/internal/config"
)

// UserIDKey is the fiber.Locals key holding the authenticated user id.
const UserIDKey = "user_id"

// TokenVerifier turns a bearer token into the id of the user it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// OIDCVerifier verifies tokens issued by an OpenID Connect provider and
// uses the subject claim as the user id.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider and builds a verifier for it.
func NewOIDCVerifier(ctx context.Context, cfg config.OIDCConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("query OIDC provider: %w", err)
	}
	// Access tokens often carry an audience other than the client id.
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: true,
	})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("decode claims: %w", err)
	}
	if claims.Sub == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Sub, nil
}

// DevVerifier accepts any non-empty token and uses it as the user id. It
// is for local development when no identity provider is configured.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, token string) (string, error) {
	return token, nil
}

// NewVerifier returns the development verifier only when cfg.Mode asks for
// it. Any other mode needs a provider.
func NewVerifier(ctx context.Context, cfg config.OIDCConfig) (TokenVerifier, error) {
	if cfg.Mode == config.AuthDev {
		slog.Warn("development auth enabled, accepting any bearer token as the user id")
		return DevVerifier{}, nil
	}
	if cfg.ProviderURL == "" {
		return nil, errors.New("no OIDC provider configured")
	}
	return NewOIDCVerifier(ctx, cfg)
}

// Auth requires a valid Bearer token on every path except the public ones
// and stores the user id under UserIDKey.
func Auth(verifier TokenVerifier, publicPrefixes ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := c.Path()

		// Skip auth for public paths
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing Authorization header")
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return unauthorized(c, "invalid Authorization header format, expected 'Bearer <token>'")
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return unauthorized(c, "empty bearer token")
		}

		userID, err := verifier.Verify(c.Context(), token)
		if err != nil {
			slog.Debug("token verification failed", "error", err)
			return unauthorized(c, "invalid token")
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside Auth.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
