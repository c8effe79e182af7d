package middleware

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-tracker/internal/config"
)

const testIssuer = "https://id.example.test"

func newAuthApp(v TokenVerifier) *fiber.App {
	app := fiber.New()
	app.Use(Auth(v, "/api/v1/health", "/swagger"))
	app.Get("/api/v1/health", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/v1/me", func(c fiber.Ctx) error { return c.SendString(UserID(c)) })
	return app
}

func doGet(t *testing.T, app *fiber.App, path, authHeader string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestAuthDevVerifier(t *testing.T) {
	app := newAuthApp(DevVerifier{})

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"public path", "/api/v1/health", "", http.StatusOK, "ok"},
		{"missing header", "/api/v1/me", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/v1/me", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "/api/v1/me", "Bearer  ", http.StatusUnauthorized, ""},
		{"token is user", "/api/v1/me", "Bearer alice", http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doGet(t, app, tt.path, tt.header)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			} else {
				var e map[string]string
				require.NoError(t, json.Unmarshal([]byte(body), &e))
				assert.NotEmpty(t, e["error"])
			}
		})
	}
}

type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (string, error) {
	return "", errors.New("bad signature")
}

func TestAuthRejectsUnverifiedToken(t *testing.T) {
	resp, _ := doGet(t, newAuthApp(rejectAll{}), "/api/v1/me", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	jws, err := signer.Sign(payload)
	require.NoError(t, err)
	token, err := jws.CompactSerialize()
	require.NoError(t, err)
	return token
}

func TestOIDCVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	v := &OIDCVerifier{verifier: oidc.NewVerifier(testIssuer, keySet, &oidc.Config{SkipClientIDCheck: true})}
	app := newAuthApp(v)

	now := time.Now()
	valid := signToken(t, key, map[string]any{
		"iss": testIssuer, "sub": "user-42", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
	})
	resp, body := doGet(t, app, "/api/v1/me", "Bearer "+valid)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-42", body)

	expired := signToken(t, key, map[string]any{
		"iss": testIssuer, "sub": "user-42", "iat": now.Add(-2 * time.Hour).Unix(), "exp": now.Add(-time.Hour).Unix(),
	})
	resp, _ = doGet(t, app, "/api/v1/me", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	otherIssuer := signToken(t, key, map[string]any{
		"iss": "https://evil.test", "sub": "user-42", "exp": now.Add(time.Hour).Unix(),
	})
	resp, _ = doGet(t, app, "/api/v1/me", "Bearer "+otherIssuer)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewVerifierWithoutProvider(t *testing.T) {
	_, err := NewVerifier(context.Background(), config.OIDCConfig{})
	assert.Error(t, err)
	_, err = NewVerifier(context.Background(), config.OIDCConfig{Mode: config.AuthOIDC})
	assert.Error(t, err)

	v, err := NewVerifier(context.Background(), config.OIDCConfig{Mode: config.AuthDev})
	require.NoError(t, err)
	assert.IsType(t, DevVerifier{}, v)
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app := fiber.New()
	app.Use(Auth(DevVerifier{}))
	app.Use(NewRateLimiter(rdb, 2, 60).Handler())
	app.Get("/api/v1/me", func(c fiber.Ctx) error { return c.SendString(UserID(c)) })

	for i, want := range []string{"1", "0"} {
		resp, _ := doGet(t, app, "/api/v1/me", "Bearer alice")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, want, resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp, _ := doGet(t, app, "/api/v1/me", "Bearer alice")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Counted per user.
	resp, _ = doGet(t, app, "/api/v1/me", "Bearer bob")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A new window starts once the key expires.
	mr.FastForward(61 * time.Second)
	resp, _ = doGet(t, app, "/api/v1/me", "Bearer alice")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	for _, rl := range []*RateLimiter{NewRateLimiter(nil, 1, 60), NewRateLimiter(rdb, 1, 60)} {
		app := fiber.New()
		app.Use(rl.Handler())
		app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

		for range 3 {
			resp, _ := doGet(t, app, "/", "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}
}

func TestLocalRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(Auth(DevVerifier{}))
	app.Use(NewLocalRateLimiter(2, 60).Handler())
	app.Get("/api/v1/me", func(c fiber.Ctx) error { return c.SendString(UserID(c)) })

	for i := range 2 {
		resp, _ := doGet(t, app, "/api/v1/me", "Bearer alice")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, body := doGet(t, app, "/api/v1/me", "Bearer alice")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "rate limit exceeded")
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Each user has its own bucket.
	resp, _ = doGet(t, app, "/api/v1/me", "Bearer bob")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
