package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func authApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c).String())
	})
	return app
}

func TestAuthMiddlewareAcceptsIssuedToken(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(userID, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := authApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	resp, err := authApp().Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(uuid.New(), "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := authApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	token, err := IssueToken(uuid.New(), testSecret, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := authApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAttemptCookieRoundTrip(t *testing.T) {
	attemptID := uuid.New()
	masterToken := uuid.New()

	value, err := SignAttemptCookie(attemptID, masterToken, testSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	parsed, err := ParseAttemptCookie(value, masterToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, attemptID, parsed)
}

func TestAttemptCookieRejectsTampering(t *testing.T) {
	masterToken := uuid.New()
	value, err := SignAttemptCookie(uuid.New(), masterToken, testSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseAttemptCookie(value, masterToken, "other-secret")
	assert.Error(t, err)

	_, err = ParseAttemptCookie(value+"x", masterToken, testSecret)
	assert.Error(t, err)
}

func TestAttemptCookieBoundToLink(t *testing.T) {
	value, err := SignAttemptCookie(uuid.New(), uuid.New(), testSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	// Presenting a cookie under a different link must not verify.
	_, err = ParseAttemptCookie(value, uuid.New(), testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAttemptCookieExpires(t *testing.T) {
	masterToken := uuid.New()
	value, err := SignAttemptCookie(uuid.New(), masterToken, testSecret, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = ParseAttemptCookie(value, masterToken, testSecret)
	assert.Error(t, err)
}
