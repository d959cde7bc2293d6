package mister

import (
	"errors"
	"fmt"
)

var (
	// ErrSensorNotFound indicates the monitored sensor name is not known to
	// the sensor provider.
	ErrSensorNotFound = errors.New("monitored sensor was not found with the sensor provider")

	// ErrOutletNotFound indicates the misting pump outlet name is not known
	// to the actuator provider.
	ErrOutletNotFound = errors.New("misting pump outlet was not found with the actuator provider")

	// ErrAlertsNotConfigured indicates the monitored sensor has no humidity
	// alert block configured, so there is no lower limit to mist against.
	ErrAlertsNotConfigured = errors.New("sensor has no humidity alert configuration")

	// ErrNoSamples indicates the sensor provider returned no samples for the
	// monitored sensor.
	ErrNoSamples = errors.New("sensor provider returned no samples for the monitored sensor")
)

// ActuationIncompleteError reports that the outlet was confirmed on but the
// off command failed. The misting pump may still be running.
type ActuationIncompleteError struct {
	Outlet string
	Err    error
}

func (e *ActuationIncompleteError) Error() string {
	return fmt.Sprintf("outlet %q may still be on: off command failed: %v", e.Outlet, e.Err)
}

func (e *ActuationIncompleteError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err stems from missing or mismatched
// provider configuration rather than a transient provider failure.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrSensorNotFound) ||
		errors.Is(err, ErrOutletNotFound) ||
		errors.Is(err, ErrAlertsNotConfigured)
}
