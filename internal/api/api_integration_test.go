// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "securebank/internal"
	"securebank/internal/api/types"
	"securebank/internal/config"
	"securebank/internal/domain"
	"securebank/pkg/db"
)

// testConfig returns a configuration for the given backend with no external services.
func testConfig(backend, dir string) *config.AppConfig {
	return &config.AppConfig{
		ServerPort:      "0",
		LogLevel:        "error",
		StorageBackend:  backend,
		StorageDir:      dir,
		DB:              db.Config{},
		RedisPrefix:     "securebank",
		PasswordHashing: "plain",
		NotificationTTL: 3 * time.Second,
	}
}

// startServer initializes an application and serves it with httptest.
func startServer(t *testing.T, cfg *config.AppConfig) *httptest.Server {
	t.Helper()
	application := app.NewApplication()
	require.NoError(t, application.InitializeWithConfig(context.Background(), cfg))

	server := httptest.NewServer(application.HTTPHandler)
	t.Cleanup(func() {
		server.Close()
		_ = application.Shutdown(context.Background())
	})
	return server
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return startServer(t, testConfig(config.BackendMemory, ""))
}

// doRequest sends body as JSON and returns the response with its raw body.
func doRequest(t *testing.T, server *httptest.Server, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeAccount(t *testing.T, raw []byte) types.AccountResponse {
	t.Helper()
	var out types.AccountResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func decodeError(t *testing.T, raw []byte) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(raw, &out))
	return out["error"]
}

func register(t *testing.T, server *httptest.Server, username string) *types.UserResponse {
	t.Helper()
	resp, raw := doRequest(t, server, http.MethodPost, "/register", map[string]string{
		"username": username,
		"password": username + "-pw",
		"fullName": "Full " + username,
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	return decodeAccount(t, raw).User
}

func login(t *testing.T, server *httptest.Server, username string) {
	t.Helper()
	resp, raw := doRequest(t, server, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": username + "-pw",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestHealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doRequest(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(raw))

	register(t, server, "alice")
	resp, raw = doRequest(t, server, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `securebank_operations_total{operation="register",outcome="success"} 1`)
}

func TestRegisterAPI(t *testing.T) {
	server := newTestServer(t)

	t.Run("Success", func(t *testing.T) {
		resp, raw := doRequest(t, server, http.MethodPost, "/register", map[string]string{
			"username": "alice", "password": "pw", "fullName": "Alice A", "email": "a@example.com",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NotContains(t, string(raw), `"password"`)

		out := decodeAccount(t, raw)
		require.NotNil(t, out.User)
		assert.True(t, out.User.Balance.Equal(decimal.NewFromInt(1000)))
		assert.Regexp(t, `^ACC\d{9}$`, out.User.AccountNumber)
		require.NotNil(t, out.Notification)
		assert.Equal(t, "Account created successfully! Welcome bonus: $1000", out.Notification.Message)
		assert.Equal(t, domain.NotificationSuccess, out.Notification.Type)
		assert.Positive(t, out.Notification.ExpiresInMS)
	})

	t.Run("Duplicate", func(t *testing.T) {
		resp, raw := doRequest(t, server, http.MethodPost, "/register", map[string]string{"username": "alice", "password": "x"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "Username already exists", decodeError(t, raw))
	})

	t.Run("MissingFields", func(t *testing.T) {
		resp, _ := doRequest(t, server, http.MethodPost, "/register", map[string]string{"username": "bob"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/register", strings.NewReader("{not json"))
		require.NoError(t, err)
		resp, err := server.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSessionAPI(t *testing.T) {
	server := newTestServer(t)
	alice := register(t, server, "alice")

	resp, _ := doRequest(t, server, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := doRequest(t, server, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", decodeError(t, raw))

	resp, raw = doRequest(t, server, http.MethodPost, "/login", map[string]string{"username": "ghost", "password": "alice-pw"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", decodeError(t, raw))

	login(t, server, "alice")
	resp, raw = doRequest(t, server, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, alice.ID, decodeAccount(t, raw).User.ID)

	resp, raw = doRequest(t, server, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", decodeAccount(t, raw).Notification.Message)

	resp, _ = doRequest(t, server, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw = doRequest(t, server, http.MethodPost, "/deposit", map[string]string{"amount": "10"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Please log in first", decodeError(t, raw))
}

func TestDepositWithdrawAPI(t *testing.T) {
	server := newTestServer(t)
	register(t, server, "alice")
	login(t, server, "alice")

	resp, raw := doRequest(t, server, http.MethodPost, "/deposit", map[string]interface{}{"amount": 250.5})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out := decodeAccount(t, raw)
	assert.True(t, out.User.Balance.Equal(decimal.RequireFromString("1250.5")))
	assert.Equal(t, "Successfully deposited $250.50", out.Notification.Message)

	resp, raw = doRequest(t, server, http.MethodPost, "/deposit", map[string]string{"amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid amount", decodeError(t, raw))

	resp, raw = doRequest(t, server, http.MethodPost, "/withdraw", map[string]string{"amount": "5000"})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Insufficient funds", decodeError(t, raw))

	resp, raw = doRequest(t, server, http.MethodPost, "/withdraw", map[string]string{"amount": "50.5"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out = decodeAccount(t, raw)
	assert.True(t, out.User.Balance.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, "Successfully withdrew $50.50", out.Notification.Message)
}

func TestTransferAPI(t *testing.T) {
	server := newTestServer(t)
	alice := register(t, server, "alice")
	bob := register(t, server, "bob")
	login(t, server, "alice")

	t.Run("Internal", func(t *testing.T) {
		resp, raw := doRequest(t, server, http.MethodPost, "/transfers", map[string]string{
			"type": "internal", "recipient": bob.AccountNumber, "amount": "200",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
		out := decodeAccount(t, raw)
		assert.True(t, out.User.Balance.Equal(decimal.NewFromInt(800)))
		assert.Equal(t, bob.AccountNumber, out.User.Transactions[0].To)

		// Bob sees the credit after logging in.
		login(t, server, "bob")
		resp, raw = doRequest(t, server, http.MethodGet, "/session", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		bobNow := decodeAccount(t, raw).User
		assert.True(t, bobNow.Balance.Equal(decimal.NewFromInt(1200)))
		assert.Equal(t, alice.AccountNumber, bobNow.Transactions[0].From)
		login(t, server, "alice")
	})

	t.Run("RecipientNotFound", func(t *testing.T) {
		resp, raw := doRequest(t, server, http.MethodPost, "/transfers", map[string]string{
			"type": "internal", "recipient": "ACC000000000", "amount": "1",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Recipient account not found", decodeError(t, raw))
	})

	t.Run("SelfTransfer", func(t *testing.T) {
		resp, raw := doRequest(t, server, http.MethodPost, "/transfers", map[string]string{
			"type": "internal", "recipient": alice.AccountNumber, "amount": "1",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Cannot transfer to your own account", decodeError(t, raw))
	})

	t.Run("Mobile", func(t *testing.T) {
		resp, raw := doRequest(t, server, http.MethodPost, "/transfers", map[string]string{
			"type": "mobile", "mobileNumber": "+233200000000", "amount": "100",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
		out := decodeAccount(t, raw)
		assert.True(t, out.User.Balance.Equal(decimal.NewFromInt(700)))
		assert.Equal(t, "Mobile Money to +233200000000", out.User.Transactions[0].Description)
	})

	t.Run("UnknownType", func(t *testing.T) {
		resp, _ := doRequest(t, server, http.MethodPost, "/transfers", map[string]string{"type": "wire", "amount": "1"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTransactionHistoryAPI(t *testing.T) {
	server := newTestServer(t)
	register(t, server, "alice")

	resp, _ := doRequest(t, server, http.MethodGet, "/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login(t, server, "alice")
	for _, amt := range []string{"1", "2", "3"} {
		resp, raw := doRequest(t, server, http.MethodPost, "/deposit", map[string]string{"amount": amt})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	}

	resp, raw := doRequest(t, server, http.MethodGet, "/transactions?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page types.PaginatedResponse[domain.Transaction]
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, int64(4), page.TotalCount)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Data, 2)
	assert.True(t, page.Data[0].Amount.Equal(decimal.NewFromInt(2)))
	assert.True(t, page.Data[1].Amount.Equal(decimal.NewFromInt(1)))
}

func TestNotificationAPI(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doRequest(t, server, http.MethodGet, "/notification", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	register(t, server, "alice")
	resp, raw := doRequest(t, server, http.MethodGet, "/notification", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var n types.NotificationResponse
	require.NoError(t, json.Unmarshal(raw, &n))
	assert.Equal(t, "Account created successfully! Welcome bonus: $1000", n.Message)
	assert.LessOrEqual(t, n.ExpiresInMS, int64(3000))
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first := startServer(t, testConfig(config.BackendFile, dir))
	alice := register(t, first, "alice")
	login(t, first, "alice")
	resp, _ := doRequest(t, first, http.MethodPost, "/deposit", map[string]string{"amount": "42"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first.Close()

	second := startServer(t, testConfig(config.BackendFile, dir))
	resp, raw := doRequest(t, second, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "session is restored from storage")
	restored := decodeAccount(t, raw).User
	assert.Equal(t, alice.ID, restored.ID)
	assert.True(t, restored.Balance.Equal(decimal.NewFromInt(1042)))
	assert.Len(t, restored.Transactions, 2)
}
