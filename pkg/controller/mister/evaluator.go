package mister

// EvaluateThreshold decides whether the current humidity calls for misting.
//
// A disabled alert configuration takes priority over everything else. When
// enabled, misting triggers only while humidity plus the trigger offset is
// strictly below the configured minimum, so a reading exactly at the lower
// limit is sufficient.
func EvaluateThreshold(humidity float64, alert HumidityAlert, triggerOffset float64) Decision {
	if !alert.Enabled {
		return DecisionDisabled
	}

	if humidity+triggerOffset < alert.Minimum {
		return DecisionTrigger
	}

	return DecisionSufficient
}
