package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heartbeat-sense/heartbeat-go/api"
	apperrors "github.com/heartbeat-sense/heartbeat-go/internal/errors"
	"github.com/heartbeat-sense/heartbeat-go/internal/utils"
	"github.com/heartbeat-sense/heartbeat-go/store"
)

func newTestClient(t *testing.T, handler http.Handler) (*api.Client, *store.MemoryStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := store.NewMemoryStore()
	client, err := api.New(srv.URL, api.StoreTokenSource{Store: st, Key: "hb_token"})
	require.NoError(t, err)
	return client, st
}

func TestLogin(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.com", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"token":     "tok-1",
			"firstname": "Anna",
			"email":     "a@b.com",
		})
	}))

	user, err := client.Login(context.Background(), api.LoginRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "tok-1", user.Token)
	require.Equal(t, "Anna", user.FirstName)
}

func TestMe(t *testing.T) {
	t.Run("carries bearer token from the store", func(t *testing.T) {
		var gotAuth string
		client, st := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]any{"FirstName": "Anna"})
		}))

		require.NoError(t, st.Set("hb_token", "tok-1"))
		user, err := client.Me(context.Background())
		require.NoError(t, err)
		require.Equal(t, "Bearer tok-1", gotAuth)
		require.Equal(t, "Anna", user.FirstName)
	})

	t.Run("missing token fails before the wire", func(t *testing.T) {
		called := false
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		_, err := client.Me(context.Background())
		require.Error(t, err)
		require.False(t, called)
	})

	t.Run("401 maps to ErrUnauthorized", func(t *testing.T) {
		client, st := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		require.NoError(t, st.Set("hb_token", "stale"))
		_, err := client.Me(context.Background())
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestLatestMeasurements(t *testing.T) {
	client, st := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/measurements/latest", r.URL.Path)
		require.Equal(t, "500", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"value": "72", "createdAt": "2026-08-30T10:00:00Z"},
				{"value": 80, "createdAt": "2026-08-30T10:05:00Z", "activityId": 3},
			},
		})
	}))

	require.NoError(t, st.Set("hb_token", "tok"))
	items, err := client.LatestMeasurements(context.Background(), 500, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	f, ok := items[0].Value.Float()
	require.True(t, ok)
	require.Equal(t, 72.0, f)
	require.Equal(t, utils.Ptr(3), items[1].ActivityID)
}

func TestAssignActivity(t *testing.T) {
	t.Run("sends bare integer body", func(t *testing.T) {
		client, st := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			require.Equal(t, "/api/measurements/42/activity", r.URL.Path)

			var body int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, 7, body)

			json.NewEncoder(w).Encode(map[string]any{"id": 42, "value": "72", "createdAt": "2026-08-30T10:00:00Z", "activityId": 7})
		}))

		require.NoError(t, st.Set("hb_token", "tok"))
		updated, err := client.AssignActivity(context.Background(), 42, utils.Ptr(7))
		require.NoError(t, err)
		require.Equal(t, utils.Ptr(7), updated.ActivityID)
	})

	t.Run("nil clears the linkage with a null body", func(t *testing.T) {
		client, st := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body *int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Nil(t, body)

			json.NewEncoder(w).Encode(map[string]any{"id": 42, "value": "72", "createdAt": "2026-08-30T10:00:00Z"})
		}))

		require.NoError(t, st.Set("hb_token", "tok"))
		updated, err := client.AssignActivity(context.Background(), 42, nil)
		require.NoError(t, err)
		require.Nil(t, updated.ActivityID)
	})
}

func TestActivities(t *testing.T) {
	client, st := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "title": "Running"}})
		case r.Method == http.MethodPost:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			json.NewEncoder(w).Encode(map[string]any{"id": 2, "title": body["title"]})
		case r.Method == http.MethodPut:
			require.Equal(t, "/api/activities/1", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{"id": 1, "title": "Walking"})
		}
	}))
	require.NoError(t, st.Set("hb_token", "tok"))

	t.Run("list", func(t *testing.T) {
		activities, err := client.ListActivities(context.Background())
		require.NoError(t, err)
		require.Len(t, activities, 1)
		require.Equal(t, "Running", activities[0].Title)
	})

	t.Run("create", func(t *testing.T) {
		activity, err := client.CreateActivity(context.Background(), api.ActivityRequest{Title: "Cycling"})
		require.NoError(t, err)
		require.Equal(t, "Cycling", activity.Title)
	})

	t.Run("update", func(t *testing.T) {
		activity, err := client.UpdateActivity(context.Background(), 1, api.ActivityRequest{Title: "Walking"})
		require.NoError(t, err)
		require.Equal(t, "Walking", activity.Title)
	})
}

func TestErrorMessageSurfaced(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "email already registered"})
	}))

	_, err := client.Register(context.Background(), api.RegisterRequest{Email: "a@b.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "email already registered")
}
