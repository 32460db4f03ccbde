package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmalik/paysplit/internal/auth"
	"github.com/nmalik/paysplit/internal/service"
	"github.com/nmalik/paysplit/internal/storage/sqlite"
)

// newTestServer wires the full stack over a temp database.
func newTestServer(t *testing.T) (*httptest.Server, *auth.JWTManager) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	groups := service.NewGroupService(store)
	payments := service.NewPaymentService(store, nil, nil)
	requests := service.NewRequestService(store, nil, nil, payments)
	schedules := service.NewScheduleService(store)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	handler := NewHandler(groups, payments, requests, schedules)
	server := httptest.NewServer(NewRouter(handler, jwtManager))
	t.Cleanup(server.Close)
	return server, jwtManager
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestAuthRequired(t *testing.T) {
	server, jwtManager := newTestServer(t)

	t.Run("missing token rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/v1/groups", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/v1/groups", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token accepted", func(t *testing.T) {
		token, err := jwtManager.Generate("0xcaller")
		require.NoError(t, err)
		resp := doJSON(t, http.MethodGet, server.URL+"/v1/groups", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("health endpoint is public", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics endpoint is public", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestGroupPaymentFlow(t *testing.T) {
	server, jwtManager := newTestServer(t)

	ownerToken, err := jwtManager.Generate("0xowner")
	require.NoError(t, err)

	// Create a group.
	resp := doJSON(t, http.MethodPost, server.URL+"/v1/groups", ownerToken, map[string]any{
		"name": "Trip",
		"members": []map[string]string{
			{"address": "0xalice"},
			{"address": "0xbob"},
			{"address": "0xcarol"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var group groupPayload
	decode(t, resp, &group)
	assert.Equal(t, "Trip", group.Name)
	assert.Len(t, group.Members, 3)

	// Split 300 across it.
	resp = doJSON(t, http.MethodPost, server.URL+"/v1/group-payments", ownerToken, map[string]any{
		"group_id":   group.ID,
		"amount":     "300",
		"per_member": "100",
		"tokens":     []map[string]any{{"symbol": "USDC", "amount": 300}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created createPaymentResponse
	decode(t, resp, &created)
	assert.Equal(t, 100.0, created.PerMember)
	assert.NotEmpty(t, created.Payment.LinkCode)

	// The link resolves without auth.
	resp = doJSON(t, http.MethodGet, server.URL+"/group-payment/"+created.Payment.LinkCode, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary paymentSummaryResponse
	decode(t, resp, &summary)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 0, summary.Paid)

	// Each member sees their share request; alice accepts hers.
	aliceToken, err := jwtManager.Generate("0xalice")
	require.NoError(t, err)
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/requests", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lists map[string][]requestPayload
	decode(t, resp, &lists)
	require.Len(t, lists["pending"], 1)
	aliceReq := lists["pending"][0]
	assert.Equal(t, 100.0, aliceReq.Amount)
	assert.True(t, aliceReq.IsGroupPayment)

	resp = doJSON(t, http.MethodPost, server.URL+"/v1/requests/"+aliceReq.ID+"/accept", aliceToken, map[string]string{
		"settlement_tx": "tx-alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settled settleResponse
	decode(t, resp, &settled)
	assert.Equal(t, "ACCEPTED", settled.Request.Status)
	assert.False(t, settled.GroupCompleted)

	// The payer-only rule: bob cannot accept carol's request.
	bobToken, err := jwtManager.Generate("0xbob")
	require.NoError(t, err)
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/requests", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &lists)
	bobReq := lists["pending"][0]

	carolToken, err := jwtManager.Generate("0xcarol")
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, server.URL+"/v1/requests/"+bobReq.ID+"/accept", carolToken, map[string]string{
		"settlement_tx": "tx-wrong",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestQuickShareFlow(t *testing.T) {
	server, jwtManager := newTestServer(t)

	ownerToken, err := jwtManager.Generate("0xowner")
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/quick-share", ownerToken, map[string]any{
		"amount":       "60",
		"member_count": 2,
		"tokens":       []map[string]any{{"symbol": "USDC", "amount": 60}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created createQuickShareResponse
	decode(t, resp, &created)
	assert.Equal(t, 30.0, created.PerMember)

	join := func(addr string) *http.Response {
		token, err := jwtManager.Generate(addr)
		require.NoError(t, err)
		return doJSON(t, http.MethodPost, server.URL+"/v1/quick-share/"+created.Code+"/join", token, nil)
	}

	resp = join("0xu1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first joinQuickShareResponse
	decode(t, resp, &first)
	assert.Equal(t, 1, first.FilledSlots)
	assert.False(t, first.Completed)

	resp = join("0xu2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second joinQuickShareResponse
	decode(t, resp, &second)
	assert.True(t, second.Completed)

	// Full and completed: late joiners get a conflict.
	resp = join("0xu3")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestScheduleEndpoints(t *testing.T) {
	server, jwtManager := newTestServer(t)

	token, err := jwtManager.Generate("0xpayer")
	require.NoError(t, err)

	next := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	resp := doJSON(t, http.MethodPost, server.URL+"/v1/schedules", token, map[string]any{
		"payee":          "0xpayee",
		"amount":         "25",
		"frequency":      "MONTHLY",
		"next_execution": next.Format(time.RFC3339),
		"settlement_txs": []string{"tx-1"},
		"tokens":         []map[string]any{{"symbol": "USDC", "amount": 25}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sched schedulePayload
	decode(t, resp, &sched)
	assert.Equal(t, "ACTIVE", sched.Status)

	resp = doJSON(t, http.MethodPost, server.URL+"/v1/schedules/"+sched.ID+"/pause", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+fmt.Sprintf("/v1/schedules?status=%s", "PAUSED"), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed map[string][]schedulePayload
	decode(t, resp, &listed)
	require.Len(t, listed["schedules"], 1)

	// A past first execution is a validation failure.
	resp = doJSON(t, http.MethodPost, server.URL+"/v1/schedules", token, map[string]any{
		"payee":          "0xpayee",
		"amount":         "25",
		"frequency":      "DAILY",
		"next_execution": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		"settlement_txs": []string{"tx-1"},
		"tokens":         []map[string]any{{"symbol": "USDC", "amount": 25}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	server, jwtManager := newTestServer(t)

	token, err := jwtManager.Generate("0xcaller")
	require.NoError(t, err)

	t.Run("validation errors are 400", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, server.URL+"/v1/groups", token, map[string]any{
			"name": "",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing resources are 404", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, server.URL+"/v1/groups/no-such-id", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("duplicates are 409", func(t *testing.T) {
		body := map[string]any{"name": "Dup"}
		resp := doJSON(t, http.MethodPost, server.URL+"/v1/groups", token, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp = doJSON(t, http.MethodPost, server.URL+"/v1/groups", token, body)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/groups", bytes.NewBufferString("{"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
