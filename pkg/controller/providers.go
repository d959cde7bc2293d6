package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/fskhalsa/humidity-manager/internal/sensorpush"
	"github.com/fskhalsa/humidity-manager/internal/vesync"
	"github.com/fskhalsa/humidity-manager/pkg/controller/mister"
)

// sensorPushProvider adapts the SensorPush client to the mister's
// SensorProvider interface, resolving the configured sensor display name to
// a vendor sensor ID. A missing name or absent humidity alert block is a
// configuration error, never silently treated as disabled.
type sensorPushProvider struct {
	client *sensorpush.Client

	mu  sync.Mutex
	ids map[string]string
}

func newSensorPushProvider(client *sensorpush.Client) *sensorPushProvider {
	return &sensorPushProvider{
		client: client,
		ids:    make(map[string]string),
	}
}

func (p *sensorPushProvider) HumidityAlert(ctx context.Context, sensorName string) (mister.HumidityAlert, error) {
	sensors, err := p.client.Sensors(ctx)
	if err != nil {
		return mister.HumidityAlert{}, err
	}

	for id, s := range sensors {
		if s.Name != sensorName {
			continue
		}

		p.mu.Lock()
		p.ids[sensorName] = id
		p.mu.Unlock()

		if s.Alerts.Humidity == nil {
			return mister.HumidityAlert{}, fmt.Errorf("sensor %q: %w", sensorName, mister.ErrAlertsNotConfigured)
		}

		return mister.HumidityAlert{
			Enabled: s.Alerts.Humidity.Enabled,
			Minimum: s.Alerts.Humidity.Min,
			Maximum: s.Alerts.Humidity.Max,
		}, nil
	}

	return mister.HumidityAlert{}, fmt.Errorf("sensor %q: %w", sensorName, mister.ErrSensorNotFound)
}

func (p *sensorPushProvider) LatestReading(ctx context.Context, sensorName string) (mister.Reading, error) {
	id, err := p.sensorID(ctx, sensorName)
	if err != nil {
		return mister.Reading{}, err
	}

	samples, err := p.client.Samples(ctx, 1)
	if err != nil {
		return mister.Reading{}, err
	}

	latest := samples[id]
	if len(latest) == 0 {
		return mister.Reading{}, fmt.Errorf("sensor %q: %w", sensorName, mister.ErrNoSamples)
	}

	return mister.Reading{
		Humidity:   latest[0].Humidity,
		ObservedAt: latest[0].Observed,
	}, nil
}

// sensorID returns the cached ID for the display name, querying the provider
// when the cache is cold.
func (p *sensorPushProvider) sensorID(ctx context.Context, sensorName string) (string, error) {
	p.mu.Lock()
	id, ok := p.ids[sensorName]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	sensors, err := p.client.Sensors(ctx)
	if err != nil {
		return "", err
	}

	for id, s := range sensors {
		if s.Name == sensorName {
			p.mu.Lock()
			p.ids[sensorName] = id
			p.mu.Unlock()
			return id, nil
		}
	}

	return "", fmt.Errorf("sensor %q: %w", sensorName, mister.ErrSensorNotFound)
}

// veSyncProvider adapts the VeSync client to the mister's OutletProvider
// interface, resolving the configured outlet display name to a device UUID.
type veSyncProvider struct {
	client *vesync.Client

	mu    sync.Mutex
	uuids map[string]string
}

func newVeSyncProvider(client *vesync.Client) *veSyncProvider {
	return &veSyncProvider{
		client: client,
		uuids:  make(map[string]string),
	}
}

func (p *veSyncProvider) TurnOutletOn(ctx context.Context, outletName string) error {
	id, err := p.outletID(ctx, outletName)
	if err != nil {
		return err
	}

	return p.client.TurnOn(ctx, id)
}

func (p *veSyncProvider) TurnOutletOff(ctx context.Context, outletName string) error {
	id, err := p.outletID(ctx, outletName)
	if err != nil {
		return err
	}

	return p.client.TurnOff(ctx, id)
}

func (p *veSyncProvider) outletID(ctx context.Context, outletName string) (string, error) {
	p.mu.Lock()
	id, ok := p.uuids[outletName]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	outlets, err := p.client.Outlets(ctx)
	if err != nil {
		return "", err
	}

	for _, o := range outlets {
		if o.Name != outletName {
			continue
		}

		id := o.UUID
		if id == "" {
			id = o.CID
		}

		p.mu.Lock()
		p.uuids[outletName] = id
		p.mu.Unlock()

		return id, nil
	}

	return "", fmt.Errorf("outlet %q: %w", outletName, mister.ErrOutletNotFound)
}
