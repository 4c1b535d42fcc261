package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodseer-bot/pkg/logger"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second, logger.NewNop()), srv
}

func TestLogin(t *testing.T) {
	var gotBody map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-123"})
	}))
	defer srv.Close()

	resp, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.AccessToken)
	assert.Equal(t, map[string]string{"username": "alice", "password": "secret"}, gotBody)
}

func TestBearerTokenAttached(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	foods, err := client.Foods(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Empty(t, foods)
}

func TestAPIErrorOnFailureStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad credentials"))
	}))
	defer srv.Close()

	_, err := client.Login(context.Background(), "alice", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "bad credentials", apiErr.Body)
}

func TestCreateOrderBodyShape(t *testing.T) {
	var raw []byte
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		raw, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":10,"name":"Lunch Order"}`))
	}))
	defer srv.Close()

	order, err := client.CreateOrder(context.Background(), "tok", OrderRequest{
		Name:  "Lunch Order",
		Foods: []OrderFoodRef{{ID: 7}, {ID: 7}, {ID: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), order.ID)

	// Quantity is expressed by repeating the food reference.
	assert.JSONEq(t,
		`{"name":"Lunch Order","foods":[{"id":7},{"id":7},{"id":3}],"isFulfilled":false}`,
		string(raw))
}

func TestRateFoodAlreadyRated(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{"conflict status", http.StatusConflict, "duplicate"},
		{"message match", http.StatusBadRequest, "You have already rated this food"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/foods/orders/10/7/rate", r.URL.Path)
				assert.Equal(t, "4", r.URL.Query().Get("rating"))
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := client.RateFood(context.Background(), "tok", 10, 7, 4)
			assert.ErrorIs(t, err, ErrAlreadyRated)
		})
	}
}

func TestRateFoodSuccess(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, client.RateFood(context.Background(), "tok", 10, 7, 5))
}

func TestChat(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "something spicy", req["message"])
		json.NewEncoder(w).Encode(map[string]string{"message": "Try our Chili Soup!"})
	}))
	defer srv.Close()

	reply, err := client.Chat(context.Background(), "tok", "something spicy")
	require.NoError(t, err)
	assert.Equal(t, "Try our Chili Soup!", reply)
}

func TestDriverStatsQueryEscaping(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/driverStats", r.URL.Path)
		assert.Equal(t, "dave & co", r.URL.Query().Get("username"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"totalDeliveries": 12, "totalEarning": 84.5, "averageRating": 4.6, "activeOrders": 2,
		})
	}))
	defer srv.Close()

	stats, err := client.DriverStats(context.Background(), "dave & co")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalDeliveries)
	assert.Equal(t, 84.5, stats.TotalEarning)
}

func TestOrderAndUserLookupPaths(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders":
			w.Write([]byte(`[{"id":1,"name":"A"},{"id":2,"name":"B"}]`))
		case "/api/orders/2":
			w.Write([]byte(`{"id":2,"name":"B","isFulfilled":true}`))
		case "/api/users/9":
			w.Write([]byte(`{"id":9,"username":"carol","role":"STAFF"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	orders, err := client.Orders(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	order, err := client.OrderByID(ctx, "tok", 2)
	require.NoError(t, err)
	assert.True(t, order.IsFulfilled)

	user, err := client.UserByID(ctx, "tok", 9)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
}

func TestEmptySuccessBodyTolerated(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, client.UpdatePreferences(context.Background(), "tok", PreferencesUpdate{
		CostPreference:      "budget",
		DietaryRestrictions: []string{"peanuts"},
	}))
}
