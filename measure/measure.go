package measure

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Raw is a single heart-rate sample as returned by the measurements
// endpoint. The remote API owns these records; the client only holds a
// read-through cache of the latest window.
type Raw struct {
	ID         int64     `json:"id,omitempty"`
	Value      FlexValue `json:"value"`
	DeviceID   string    `json:"deviceId,omitempty"`
	CreatedAt  string    `json:"createdAt"`
	ActivityID *int      `json:"activityId,omitempty"`
}

// Activity is a user-defined label for a block of measurements, owned by the
// remote API and cached locally only for title lookups.
type Activity struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// FlexValue tolerates both `"72"` and `72` on the wire. Parsing to a number
// is deferred to aggregation so malformed values drop out there instead of
// failing the whole payload decode.
type FlexValue string

func (v *FlexValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FlexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = FlexValue(n.String())
		return nil
	}
	*v = ""
	return nil
}

func (v FlexValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// Float parses the value, rejecting anything that is not a finite number.
func (v FlexValue) Float() (float64, bool) {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Time parses the sample timestamp. Anything that is not RFC 3339 is
// treated as missing.
func (r Raw) Time() (time.Time, bool) {
	if r.CreatedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
