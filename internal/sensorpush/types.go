package sensorpush

import "time"

type (
	// AlertRange is one alert band configured on a sensor.
	AlertRange struct {
		Enabled bool    `json:"enabled"`
		Min     float64 `json:"min"`
		Max     float64 `json:"max"`
	}

	// SensorAlerts holds the alert configuration attached to a sensor. A nil
	// range means that alert type has never been configured.
	SensorAlerts struct {
		Humidity    *AlertRange `json:"humidity,omitempty"`
		Temperature *AlertRange `json:"temperature,omitempty"`
	}

	// Sensor describes a SensorPush sensor registered to the account.
	Sensor struct {
		ID       string       `json:"id"`
		DeviceID string       `json:"deviceId"`
		Name     string       `json:"name"`
		Active   bool         `json:"active"`
		Alerts   SensorAlerts `json:"alerts"`
	}

	// Sample is one observation reported by a sensor.
	Sample struct {
		Observed    time.Time `json:"observed"`
		Humidity    float64   `json:"humidity"`
		Temperature float64   `json:"temperature"`
	}

	authorizeRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	authorizeResponse struct {
		Authorization string `json:"authorization"`
	}

	accessTokenRequest struct {
		Authorization string `json:"authorization"`
	}

	accessTokenResponse struct {
		AccessToken string `json:"accesstoken"`
	}

	samplesRequest struct {
		Limit int `json:"limit"`
	}

	samplesResponse struct {
		LastTime string              `json:"last_time"`
		Sensors  map[string][]Sample `json:"sensors"`
		Status   string              `json:"status"`
	}
)
