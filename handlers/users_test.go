package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAndLogin(t *testing.T, api *gin.Engine, email, password string) (token string, refreshToken string) {
	t.Helper()
	rec := doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	token, _ = body["token"].(string)
	refreshToken, _ = body["refresh_token"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, refreshToken)
	return token, refreshToken
}

func TestRegisterValidation(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": "not-an-email", "password": "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": "a@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"password": "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": "a@example.com", "password": "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": "a@example.com", "password": "longenough"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "User already exists", body["message"])
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	api, _, _ := newTestAPI(t)
	token, _ := registerAndLogin(t, api, "a@example.com", "longenough")

	rec := doRequest(t, api, http.MethodGet, "/cart", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api, _, _ := newTestAPI(t)
	rec := doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": "a@example.com", "password": "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Unknown email and wrong password get the same response.
	rec = doRequest(t, api, http.MethodPost, "/auth/login", "", gin.H{"email": "a@example.com", "password": "wrongpass"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "Invalid email or password", body["message"])

	rec = doRequest(t, api, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@example.com", "password": "longenough"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestRefreshToken(t *testing.T) {
	api, _, _ := newTestAPI(t)
	_, refreshToken := registerAndLogin(t, api, "a@example.com", "longenough")

	rec := doRequest(t, api, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": refreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	newToken, _ := body["token"].(string)
	require.NotEmpty(t, newToken)

	rec = doRequest(t, api, http.MethodGet, "/cart", newToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshTokenRejected(t *testing.T) {
	api, _, _ := newTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/auth/refresh", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, api, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListSessionsTracksDevices(t *testing.T) {
	api, _, _ := newTestAPI(t)
	rec := doRequest(t, api, http.MethodPost, "/auth/register", "", gin.H{"email": "a@example.com", "password": "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code)

	login := func(deviceID string) string {
		payload, err := json.Marshal(gin.H{"email": "a@example.com", "password": "longenough"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Device-ID", deviceID)
		w := httptest.NewRecorder()
		api.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body["token"].(string)
	}

	login("phone")
	token := login("laptop")

	rec = doRequest(t, api, http.MethodGet, "/auth/sessions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sessions []struct {
			DeviceID string `json:"device_id"`
		} `json:"sessions"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Sessions, 2)
}
