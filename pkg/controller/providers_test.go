package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fskhalsa/humidity-manager/internal/sensorpush"
	"github.com/fskhalsa/humidity-manager/internal/vesync"
	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
)

// newSensorPushServer serves just enough of the SensorPush API for the
// provider adapter: one sensor with a humidity alert and one sample.
func newSensorPushServer(t *testing.T, alerts map[string]any, sensorCalls *int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /oauth/authorize", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"authorization": "auth-code"})
	})
	mux.HandleFunc("POST /oauth/accesstoken", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accesstoken": "token-1"})
	})
	mux.HandleFunc("POST /devices/sensors", func(w http.ResponseWriter, r *http.Request) {
		if sensorCalls != nil {
			*sensorCalls++
		}
		json.NewEncoder(w).Encode(map[string]any{
			"12345.67": map[string]any{
				"name":   "Delilah Vivarium - Hot Side",
				"active": true,
				"alerts": alerts,
			},
		})
	})
	mux.HandleFunc("POST /samples", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sensors": map[string]any{
				"12345.67": []map[string]any{
					{"observed": "2024-06-01T12:00:00Z", "humidity": 48.2, "temperature": 29.5},
				},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func humidityAlert(enabled bool) map[string]any {
	return map[string]any{
		"humidity": map[string]any{"enabled": enabled, "min": 50.0, "max": 65.0},
	}
}

func TestSensorPushProvider(t *testing.T) {
	t.Run("resolves the sensor by display name", func(t *testing.T) {
		server := newSensorPushServer(t, humidityAlert(true), nil)
		provider := newSensorPushProvider(sensorpush.NewClient(server.URL, "u", "p", 5*time.Second))

		alert, err := provider.HumidityAlert(context.Background(), "Delilah Vivarium - Hot Side")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !alert.Enabled || alert.Minimum != 50 || alert.Maximum != 65 {
			t.Errorf("unexpected alert: %+v", alert)
		}
	})

	t.Run("unknown sensor name is a configuration error", func(t *testing.T) {
		server := newSensorPushServer(t, humidityAlert(true), nil)
		provider := newSensorPushProvider(sensorpush.NewClient(server.URL, "u", "p", 5*time.Second))

		_, err := provider.HumidityAlert(context.Background(), "No Such Sensor")
		if !errors.Is(err, mister.ErrSensorNotFound) {
			t.Errorf("expected ErrSensorNotFound, got %v", err)
		}
	})

	t.Run("missing humidity alert block is a configuration error", func(t *testing.T) {
		server := newSensorPushServer(t, map[string]any{}, nil)
		provider := newSensorPushProvider(sensorpush.NewClient(server.URL, "u", "p", 5*time.Second))

		_, err := provider.HumidityAlert(context.Background(), "Delilah Vivarium - Hot Side")
		if !errors.Is(err, mister.ErrAlertsNotConfigured) {
			t.Errorf("expected ErrAlertsNotConfigured, got %v", err)
		}
	})

	t.Run("reads the latest sample for the resolved sensor", func(t *testing.T) {
		calls := 0
		server := newSensorPushServer(t, humidityAlert(true), &calls)
		provider := newSensorPushProvider(sensorpush.NewClient(server.URL, "u", "p", 5*time.Second))

		if _, err := provider.HumidityAlert(context.Background(), "Delilah Vivarium - Hot Side"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reading, err := provider.LatestReading(context.Background(), "Delilah Vivarium - Hot Side")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reading.Humidity != 48.2 {
			t.Errorf("expected humidity 48.2, got %v", reading.Humidity)
		}

		if !reading.ObservedAt.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected observation time: %v", reading.ObservedAt)
		}

		// the ID was cached during HumidityAlert, no second sensors call
		if calls != 1 {
			t.Errorf("expected one sensors call, got %d", calls)
		}
	})
}

func newVeSyncServer(t *testing.T, outlets []vesync.Outlet, statuses *[]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /cloud/v1/user/login", func(w http.ResponseWriter, r *http.Request) {
		result, _ := json.Marshal(map[string]string{"token": "tk-1", "accountID": "acct-1"})
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "result": json.RawMessage(result)})
	})
	mux.HandleFunc("POST /cloud/v1/deviceManaged/devices", func(w http.ResponseWriter, r *http.Request) {
		result, _ := json.Marshal(map[string]any{"total": len(outlets), "list": outlets})
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "result": json.RawMessage(result)})
	})
	mux.HandleFunc("PUT /v15/device/devicestatus", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UUID   string `json:"uuid"`
			Status string `json:"status"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if statuses != nil {
			*statuses = append(*statuses, req.UUID+":"+req.Status)
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 0})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestVeSyncProvider(t *testing.T) {
	mister1 := vesync.Outlet{CID: "cid-1", UUID: "uuid-1", Name: "Vivarium Mister", Type: "wifi-switch-1.3"}

	t.Run("switches the outlet resolved by display name", func(t *testing.T) {
		var statuses []string
		server := newVeSyncServer(t, []vesync.Outlet{mister1}, &statuses)
		provider := newVeSyncProvider(vesync.NewClient(server.URL, "u", "p", 5*time.Second))

		if err := provider.TurnOutletOn(context.Background(), "Vivarium Mister"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := provider.TurnOutletOff(context.Background(), "Vivarium Mister"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(statuses) != 2 || statuses[0] != "uuid-1:on" || statuses[1] != "uuid-1:off" {
			t.Errorf("unexpected status sequence: %v", statuses)
		}
	})

	t.Run("falls back to the cid when the uuid is empty", func(t *testing.T) {
		var statuses []string
		outlet := vesync.Outlet{CID: "cid-2", Name: "Vivarium Mister"}
		server := newVeSyncServer(t, []vesync.Outlet{outlet}, &statuses)
		provider := newVeSyncProvider(vesync.NewClient(server.URL, "u", "p", 5*time.Second))

		if err := provider.TurnOutletOn(context.Background(), "Vivarium Mister"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(statuses) != 1 || statuses[0] != "cid-2:on" {
			t.Errorf("unexpected status sequence: %v", statuses)
		}
	})

	t.Run("unknown outlet name is a configuration error", func(t *testing.T) {
		server := newVeSyncServer(t, []vesync.Outlet{mister1}, nil)
		provider := newVeSyncProvider(vesync.NewClient(server.URL, "u", "p", 5*time.Second))

		err := provider.TurnOutletOn(context.Background(), "No Such Outlet")
		if !errors.Is(err, mister.ErrOutletNotFound) {
			t.Errorf("expected ErrOutletNotFound, got %v", err)
		}
	})
}
