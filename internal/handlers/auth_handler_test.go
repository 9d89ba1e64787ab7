package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmate/internal/middleware"
	"recruitmate/internal/models"
	"recruitmate/internal/repositories"
	"recruitmate/internal/testhelpers"
)

const testJWTSecret = "test-jwt-secret"

func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	handler := NewAuthHandler(repositories.NewUserRepository(db), testJWTSecret, time.Hour)

	app := fiber.New()
	app.Post("/auth/signup", handler.HandleSignup)
	app.Post("/auth/login", handler.HandleLogin)
	app.Get("/auth/me", middleware.NewAuthMiddleware(testJWTSecret), handler.HandleMe)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*fiber.App, int, map[string]json.RawMessage) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var parsed map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return app, resp.StatusCode, parsed
}

func TestSignupAndLogin(t *testing.T) {
	app := setupAuthApp(t)

	_, status, body := postJSON(t, app, "/auth/signup", models.SignupRequest{
		Email:    "Recruiter@Example.com",
		Password: "supersecret",
		Name:     "Recruiter",
		Company:  "Acme",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, body, "token")

	var user models.User
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.Equal(t, "recruiter@example.com", user.Email)

	// Password hashes never serialize.
	assert.NotContains(t, string(body["user"]), "supersecret")
	assert.NotContains(t, string(body["user"]), "password_hash")

	_, status, body = postJSON(t, app, "/auth/login", models.LoginRequest{
		Email:    "recruiter@example.com",
		Password: "supersecret",
	})
	require.Equal(t, fiber.StatusOK, status)

	var token string
	require.NoError(t, json.Unmarshal(body["token"], &token))

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	app := setupAuthApp(t)

	_, status, _ := postJSON(t, app, "/auth/signup", models.SignupRequest{
		Email:    "dup@example.com",
		Password: "supersecret",
	})
	require.Equal(t, fiber.StatusCreated, status)

	_, status, _ = postJSON(t, app, "/auth/signup", models.SignupRequest{
		Email:    "dup@example.com",
		Password: "differentpass",
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	app := setupAuthApp(t)

	_, status, _ := postJSON(t, app, "/auth/signup", models.SignupRequest{
		Email:    "short@example.com",
		Password: "short",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := setupAuthApp(t)

	_, status, _ := postJSON(t, app, "/auth/signup", models.SignupRequest{
		Email:    "login@example.com",
		Password: "supersecret",
	})
	require.Equal(t, fiber.StatusCreated, status)

	_, status, _ = postJSON(t, app, "/auth/login", models.LoginRequest{
		Email:    "login@example.com",
		Password: "wrongpassword",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	_, status, _ = postJSON(t, app, "/auth/login", models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
