package profile

import (
	"encoding/json"
	"time"
)

// User is the profile shape the Heartbeat API returns. The upstream wire
// contract is inconsistently cased (firstName/firstname/FirstName across
// endpoints), so decoding is tolerant; see UnmarshalJSON. Serialization
// always writes the canonical camel-case form.
type User struct {
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	Email             string `json:"email,omitempty"`
	PhoneNumber       string `json:"number,omitempty"`
	Gender            string `json:"gender,omitempty"`
	DateOfBirth       string `json:"dateOfBirth,omitempty"`
	HeightCm          string `json:"height,omitempty"`
	WeightKg          string `json:"weight,omitempty"`
	BloodType         string `json:"bloodType,omitempty"`
	LatestMeasurement string `json:"latestMeasurement,omitempty"`

	// Generic identity fields some responses carry instead of a first name.
	// Used only as display fallbacks, never folded into FirstName.
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`

	// Token is a rotated bearer token piggybacked on some profile responses.
	// It is persisted separately and stripped before the profile is cached.
	Token string `json:"token,omitempty"`
}

// UnmarshalJSON decodes a profile payload tolerating the casing variants of
// the upstream contract. Per field the first present spelling wins:
// camel-case, then all-lowercase, then capitalized.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.FirstName = pick(raw, "firstName", "firstname", "FirstName")
	u.LastName = pick(raw, "lastName", "lastname", "LastName")
	u.Email = pick(raw, "email", "Email")
	u.PhoneNumber = pick(raw, "number", "phoneNumber", "phonenumber", "Number")
	u.Gender = pick(raw, "gender", "Gender")
	u.DateOfBirth = pick(raw, "dateOfBirth", "dateofbirth", "DateOfBirth")
	u.HeightCm = pick(raw, "height", "Height")
	u.WeightKg = pick(raw, "weight", "Weight")
	u.BloodType = pick(raw, "bloodType", "bloodtype", "BloodType")
	u.LatestMeasurement = pick(raw, "latestMeasurement", "latestmeasurement", "LatestMeasurement")
	u.Name = pick(raw, "name", "Name")
	u.Username = pick(raw, "username", "Username")
	u.Token = pick(raw, "token", "Token")

	return nil
}

// pick returns the first present, non-empty spelling of a field. Numeric
// wire values (height, weight) are kept as their literal representation.
func pick(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

func asString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

// DisplayName resolves the best available human-readable name. The
// precedence mirrors the source app: first name, then the generic
// name/username fields, then the email address, then empty.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	for _, candidate := range []string{u.FirstName, u.Name, u.Username, u.Email} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Age derives the age in whole years from DateOfBirth as a calendar-date
// difference from now. The second return is false when the date of birth is
// absent or unparseable.
func (u *User) Age(now time.Time) (int, bool) {
	if u == nil || u.DateOfBirth == "" {
		return 0, false
	}

	var dob time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, u.DateOfBirth); err == nil {
			dob = t
			parsed = true
			break
		}
	}
	if !parsed {
		return 0, false
	}

	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return 0, false
	}
	return years, true
}

// Merge overlays fresh server fields onto a previously cached profile,
// preferring non-empty fresh values and keeping cached ones where the server
// omitted a field. Either argument may be nil.
func Merge(fresh, cached *User) *User {
	if fresh == nil && cached == nil {
		return nil
	}
	if fresh == nil {
		out := *cached
		return &out
	}
	if cached == nil {
		out := *fresh
		return &out
	}

	out := *fresh
	or(&out.FirstName, cached.FirstName)
	or(&out.LastName, cached.LastName)
	or(&out.Email, cached.Email)
	or(&out.PhoneNumber, cached.PhoneNumber)
	or(&out.Gender, cached.Gender)
	or(&out.DateOfBirth, cached.DateOfBirth)
	or(&out.HeightCm, cached.HeightCm)
	or(&out.WeightKg, cached.WeightKg)
	or(&out.BloodType, cached.BloodType)
	or(&out.LatestMeasurement, cached.LatestMeasurement)
	or(&out.Name, cached.Name)
	or(&out.Username, cached.Username)
	return &out
}

func or(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
