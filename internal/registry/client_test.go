package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/clinic-alerts/pkg/config"
	"github.com/carelink/clinic-alerts/pkg/logger"
	"github.com/carelink/clinic-alerts/pkg/monitoring"
	"github.com/carelink/clinic-alerts/pkg/types"
)

func newTestClient(baseURL string) *Client {
	cfg := config.RegistryConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5,
		MaxRetries:     0,
	}
	log := logger.New("registry-test", "error")
	metrics := monitoring.NewMetricsCollector("registry_test")
	return NewClient(cfg, log, metrics)
}

func TestClient_ListHolds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/holds", r.URL.Path)

		holds := []*types.DosingHold{
			{ID: "hold-1", PatientID: "patient-1", Status: types.HoldStatusActive},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(holds)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	holds, err := client.ListHolds(context.Background())

	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, "hold-1", holds[0].ID)
}

func TestClient_CreateHold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/holds", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var hold types.DosingHold
		require.NoError(t, json.NewDecoder(r.Body).Decode(&hold))
		assert.Equal(t, "patient-1", hold.PatientID)

		hold.ID = "hold-new"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(&hold)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	created, err := client.CreateHold(context.Background(), &types.DosingHold{
		PatientID: "patient-1",
		Reason:    "Missed session",
	})

	require.NoError(t, err)
	assert.Equal(t, "hold-new", created.ID)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	t.Run("registry message surfaces verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"code":    "hold_conflict",
					"message": "Hold already cleared by this role",
				},
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.UpdateHold(context.Background(), "hold-1", &types.HoldUpdate{})

		require.Error(t, err)
		assert.True(t, types.IsRequestFailure(err))

		var alertErr *types.AlertError
		require.ErrorAs(t, err, &alertErr)
		assert.Equal(t, "Hold already cleared by this role", alertErr.Message)
	})

	t.Run("unparseable body falls back to a generic message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("<html>gateway error</html>"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.ListPrecautions(context.Background())

		require.Error(t, err)
		assert.True(t, types.IsRequestFailure(err))

		var alertErr *types.AlertError
		require.ErrorAs(t, err, &alertErr)
		assert.Equal(t, "request failed, please try again", alertErr.Message)
	})

	t.Run("unreachable registry is a request failure", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")

		_, err := client.ListHolds(context.Background())

		require.Error(t, err)
		assert.True(t, types.IsRequestFailure(err))
	})
}

func TestClient_RequestIDPropagation(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]*types.DosingHold{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-abc-123")
	_, err := client.ListHolds(ctx)

	require.NoError(t, err)
	assert.Equal(t, "req-abc-123", gotRequestID)
}

func TestClient_DismissFacilityAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/facility-alerts/fa-1", r.URL.Path)

		json.NewEncoder(w).Encode(&types.FacilityAlert{ID: "fa-1", Active: false})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	dismissed, err := client.DismissFacilityAlert(context.Background(), "fa-1")

	require.NoError(t, err)
	assert.False(t, dismissed.Active)
}

func TestClient_ListPatients(t *testing.T) {
	t.Run("uses the patient directory base URL", func(t *testing.T) {
		registryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("patient lookup must not hit the registry base URL")
		}))
		defer registryServer.Close()

		directoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/patients", r.URL.Path)
			json.NewEncoder(w).Encode([]*types.Patient{
				{ID: "patient-1", FirstName: "John", LastName: "Patient"},
			})
		}))
		defer directoryServer.Close()

		cfg := config.RegistryConfig{
			BaseURL:        registryServer.URL,
			PatientBaseURL: directoryServer.URL,
			RequestTimeout: 5,
		}
		client := NewClient(cfg, logger.New("registry-test", "error"), monitoring.NewMetricsCollector("registry_test"))

		patients, err := client.ListPatients(context.Background())

		require.NoError(t, err)
		require.Len(t, patients, 1)
		assert.Equal(t, "John Patient", patients[0].DisplayName())
	})

	t.Run("defaults to the registry base URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/patients", r.URL.Path)
			json.NewEncoder(w).Encode([]*types.Patient{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.ListPatients(context.Background())
		require.NoError(t, err)
	})
}
