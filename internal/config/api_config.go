package config

import "strconv"

const (
	baseURLVar          = "HEARTBEAT_API_URL"
	measurementLimitVar = "HEARTBEAT_MEASUREMENT_LIMIT"
)

type API struct{}

var _ APIConfig = API{}

func (API) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:3000")
}

// GetMeasurementLimit is the number of recent samples requested from the
// measurements endpoint. The overview uses the same window as the source app.
func (API) GetMeasurementLimit() int {
	v := GetEnv(measurementLimitVar, "500")
	limit, err := strconv.Atoi(v)
	if err != nil || limit <= 0 {
		return 500
	}
	return limit
}
