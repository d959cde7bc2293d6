package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
)

// mockSensorProvider stands in for the SensorPush API when running with
// -use_mock_providers. The humidity drifts downward each poll and jumps back
// up after it bottoms out, so every branch of the cycle gets exercised on a
// bench without vendor credentials.
type mockSensorProvider struct {
	mu       sync.Mutex
	humidity float64
}

func newMockSensorProvider() *mockSensorProvider {
	return &mockSensorProvider{humidity: 63.9}
}

func (m *mockSensorProvider) HumidityAlert(ctx context.Context, sensorName string) (mister.HumidityAlert, error) {
	slog.Debug(">>mock HumidityAlert", "sensor", sensorName)
	defer slog.Debug("<<mock HumidityAlert")

	return mister.HumidityAlert{
		Enabled: true,
		Minimum: 50,
		Maximum: 65,
	}, nil
}

func (m *mockSensorProvider) LatestReading(ctx context.Context, sensorName string) (mister.Reading, error) {
	slog.Debug(">>mock LatestReading", "sensor", sensorName)
	defer slog.Debug("<<mock LatestReading")

	m.mu.Lock()
	defer m.mu.Unlock()

	m.humidity -= 1.2
	if m.humidity < 45 {
		m.humidity = 63.9
	}

	return mister.Reading{
		Humidity:   m.humidity,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// mockOutletProvider stands in for the VeSync API.
type mockOutletProvider struct {
	mu sync.Mutex
	on bool
}

func newMockOutletProvider() *mockOutletProvider {
	return &mockOutletProvider{}
}

func (m *mockOutletProvider) TurnOutletOn(ctx context.Context, outletName string) error {
	slog.Debug(">>mock TurnOutletOn", "outlet", outletName)
	defer slog.Debug("<<mock TurnOutletOn")

	m.mu.Lock()
	m.on = true
	m.mu.Unlock()

	return nil
}

func (m *mockOutletProvider) TurnOutletOff(ctx context.Context, outletName string) error {
	slog.Debug(">>mock TurnOutletOff", "outlet", outletName)
	defer slog.Debug("<<mock TurnOutletOff")

	m.mu.Lock()
	m.on = false
	m.mu.Unlock()

	return nil
}
