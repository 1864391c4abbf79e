// Package ecoflow provides a signed HTTP client for the EcoFlow IoT open API
// and a prober that turns device quota into a probe result.
package ecoflow

import (
	"context"
	"encoding/json"
	"math"
)

// Quota keys read from /iot-open/sign/device/quota/all.
const (
	KeyInputWatts  = "inv.inputWatts"
	KeyOutputWatts = "pd.wattsOutSum"
	KeySOC         = "pd.soc"
)

// Client defines the interface for fetching device quota.
type Client interface {
	QuotaAll(ctx context.Context) (Quota, error)
}

// Quota is the flat key/value data object of a quota response.
type Quota map[string]any

// Int returns the integer value for key. Floats are truncated. ok is false
// when the key is missing, null, or not numeric.
func (q Quota) Int(key string) (int, bool) {
	switch v := q[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// IntOrZero returns Int(key), or 0 when the value is unusable.
func (q Quota) IntOrZero(key string) int {
	n, _ := q.Int(key)
	return n
}

// APIError is returned when the API answers with a non-zero code.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return "ecoflow: api code " + e.Code + ": " + e.Message
}

// apiResponse is the envelope of every open API response. Code arrives as
// either a string or a number.
type apiResponse struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Data    Quota           `json:"data"`
}
