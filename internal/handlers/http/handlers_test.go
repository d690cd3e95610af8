package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/services"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/internal/infrastructure/repositories/memory"
)

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(domain.StreamID, string, interface{}) {}

type noopScheduler struct{}

func (noopScheduler) Activate(domain.StreamID)      {}
func (noopScheduler) Deactivate(domain.StreamID)    {}
func (noopScheduler) IsActive(domain.StreamID) bool { return false }
func (noopScheduler) Shutdown()                     {}

type testEnv struct {
	router *gin.Engine
	auth   services.AuthService
	ledger ports.LedgerService
	audit  ports.AuditRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	sugar := logger.Sugar()

	streams := memory.NewMemoryStreamRepository()
	audit := memory.NewMemoryAuditRepository()
	ledgerStore := memory.NewMemoryLedgerStore("USD")

	stats := services.NewMetricsService(nil)
	roomSvc := services.NewRoomService(streams, noopScheduler{}, stats, sugar)
	ledgerSvc := services.NewLedgerService(
		services.LedgerConfig{CreatorShareBps: 8500, Currency: "USD"},
		ledgerStore, noopBroadcaster{}, stats, sugar,
	)
	authSvc := services.NewAuthService("test-secret", 15*time.Minute, time.Hour)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.ErrorHandlerMiddleware(logger))

	api := router.Group("/api/v1")
	requireAuth := middleware.AuthMiddleware(authSvc)
	NewAuthHandler(authSvc).RegisterRoutes(api)
	NewStreamHandler(roomSvc, audit, stats).RegisterRoutes(api, requireAuth)
	NewWalletHandler(ledgerSvc).RegisterRoutes(api, requireAuth)

	return &testEnv{router: router, auth: authSvc, ledger: ledgerSvc, audit: audit}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) tokenFor(t *testing.T, userID, username string) string {
	t.Helper()
	token, err := e.auth.GenerateToken(domain.UserID(userID), username)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func TestStreamEndpoints(t *testing.T) {
	env := newTestEnv(t)
	owner := env.tokenFor(t, "creator-1", "creator")

	t.Run("create requires auth", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/streams", "", gin.H{"title": "show"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	var streamID string
	t.Run("create and fetch", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/streams", owner, gin.H{"title": "friday show"})
		require.Equal(t, http.StatusCreated, w.Code)

		var room domain.StreamRoom
		decode(t, w, &room)
		assert.Equal(t, "friday show", room.Title)
		streamID = string(room.ID)

		w = env.request(t, http.MethodGet, "/api/v1/streams/"+streamID, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown stream is 404", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/streams/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("only the owner can go live", func(t *testing.T) {
		stranger := env.tokenFor(t, "stranger-1", "stranger")
		w := env.request(t, http.MethodPost, "/api/v1/streams/"+streamID+"/live", stranger, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = env.request(t, http.MethodPost, "/api/v1/streams/"+streamID+"/live", owner, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("live list includes the stream", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/streams", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count int `json:"count"`
		}
		decode(t, w, &resp)
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("guest joins a live stream", func(t *testing.T) {
		viewer := env.tokenFor(t, "viewer-1", "viewer")
		w := env.request(t, http.MethodPost, "/api/v1/streams/"+streamID+"/guests", viewer, gin.H{"display_name": "gina"})
		require.Equal(t, http.StatusCreated, w.Code)

		var guest domain.Guest
		decode(t, w, &guest)
		assert.Equal(t, "gina", guest.DisplayName)
	})

	t.Run("stop clears the session", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/streams/"+streamID+"/stop", owner, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		viewer := env.tokenFor(t, "viewer-1", "viewer")
		w = env.request(t, http.MethodPost, "/api/v1/streams/"+streamID+"/guests", viewer, gin.H{"display_name": "late"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("stats endpoint responds", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/streams/"+streamID+"/stats", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("audit endpoint responds", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/streams/"+streamID+"/audit", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWalletEndpoints(t *testing.T) {
	env := newTestEnv(t)
	fan := env.tokenFor(t, "fan-1", "fan")
	creator := env.tokenFor(t, "creator-1", "creator")

	t.Run("donation splits and credits the creator", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/donations", fan, gin.H{
			"receiver_id":  "creator-1",
			"amount_cents": 2500,
			"method":       "paypal",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var receipt ports.DonationReceipt
		decode(t, w, &receipt)
		assert.Equal(t, domain.Money(2125), receipt.CreatorNet)
		assert.Equal(t, domain.Money(375), receipt.PlatformNet)

		w = env.request(t, http.MethodGet, "/api/v1/wallet/balance", creator, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var balance struct {
			BalanceCents int64 `json:"balance_cents"`
		}
		decode(t, w, &balance)
		assert.Equal(t, int64(2125), balance.BalanceCents)
	})

	t.Run("withdraw", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/wallet/withdraw", creator, gin.H{"amount_cents": 2000})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			BalanceCents int64 `json:"balance_cents"`
		}
		decode(t, w, &resp)
		assert.Equal(t, int64(125), resp.BalanceCents)
	})

	t.Run("overdraw is payment required", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/wallet/withdraw", creator, gin.H{"amount_cents": 10000})
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("invalid method is bad request", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/donations", fan, gin.H{
			"receiver_id":  "creator-1",
			"amount_cents": 100,
			"method":       "bitcoin",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("history and earnings", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/wallet/history", fan, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var history ports.TransactionHistory
		decode(t, w, &history)
		assert.Len(t, history.Sent, 1)

		w = env.request(t, http.MethodGet, "/api/v1/wallet/earnings", creator, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var earnings ports.Earnings
		decode(t, w, &earnings)
		assert.Equal(t, domain.Money(2125), earnings.TotalRevenue)
	})

	t.Run("wallet endpoints require auth", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/wallet/balance", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("issue and use a token", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{
			"user_id":  "user-1",
			"username": "alice",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		decode(t, w, &resp)
		require.NotEmpty(t, resp.AccessToken)

		w = env.request(t, http.MethodGet, "/api/v1/wallet/balance", resp.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": resp.RefreshToken})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects malformed requests", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{"user_id": "u1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": "junk"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
