package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/heartbeat-sense/heartbeat-go/profile"
	"github.com/heartbeat-sense/heartbeat-go/store"
)

// Persisted session keys. The session is the consistent triple of flag,
// token and user: if any of the three is missing the session is treated as
// unauthenticated.
const (
	StorageAuthKey  = "hb_authenticated"
	StorageTokenKey = "hb_token"
	StorageUserKey  = "hb_user"
)

// freshnessWindow is how long a successful validation suppresses further
// network round-trips. Route-guard checks fired on every navigation must
// not each hit the API.
const freshnessWindow = 5 * time.Minute

const validateFlightKey = "validate"

// API is the slice of the remote client the session cache depends on.
type API interface {
	Me(ctx context.Context) (*profile.User, error)
}

// Manager owns the authentication token, the cached user profile and the
// time-boxed revalidation policy. All validation state lives on the one
// Manager instance constructed at application start; there is no package
// level state.
type Manager struct {
	store   store.Store
	api     API
	nowTime func() time.Time

	mu            sync.Mutex
	lastValidated time.Time

	flight singleflight.Group
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// New initializes a Manager with required dependencies.
func New(st store.Store, api API, options ...Option) (*Manager, error) {
	if st == nil {
		return nil, errors.New("[session.New] store is required")
	}
	if api == nil {
		return nil, errors.New("[session.New] api client is required")
	}

	m := &Manager{
		store:   st,
		api:     api,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// IsAuthenticated reports whether the flag, token and user are all present
// and the flag is "true". Pure store read, no I/O beyond it.
func (m *Manager) IsAuthenticated() bool {
	flag, _ := m.store.Get(StorageAuthKey)
	token, _ := m.store.Get(StorageTokenKey)
	user, _ := m.store.Get(StorageUserKey)
	return flag == "true" && token != "" && user != ""
}

func (m *Manager) SetAuthenticated(value bool) {
	v := "false"
	if value {
		v = "true"
	}
	if err := m.store.Set(StorageAuthKey, v); err != nil {
		log.Warn().Err(err).Msg("persisting authenticated flag failed")
	}
}

// SetToken persists the token; an empty token removes the key.
func (m *Manager) SetToken(token string) {
	if token == "" {
		if err := m.store.Delete(StorageTokenKey); err != nil {
			log.Warn().Err(err).Msg("removing token failed")
		}
		return
	}
	if err := m.store.Set(StorageTokenKey, token); err != nil {
		log.Warn().Err(err).Msg("persisting token failed")
	}
}

func (m *Manager) GetToken() string {
	token, _ := m.store.Get(StorageTokenKey)
	return token
}

// SetUser persists the profile as JSON. The rotated-token field is never
// written into the cached profile; SetToken owns the token key.
func (m *Manager) SetUser(user *profile.User) {
	if user == nil {
		if err := m.store.Delete(StorageUserKey); err != nil {
			log.Warn().Err(err).Msg("removing user failed")
		}
		return
	}

	stripped := *user
	stripped.Token = ""
	blob, err := json.Marshal(&stripped)
	if err != nil {
		log.Warn().Err(err).Msg("serializing user failed")
		return
	}
	if err := m.store.Set(StorageUserKey, string(blob)); err != nil {
		log.Warn().Err(err).Msg("persisting user failed")
	}
}

// GetUser returns the cached profile, or nil when absent or corrupt. A
// corrupt value is absence, never an error to the caller.
func (m *Manager) GetUser() *profile.User {
	raw, ok := m.store.Get(StorageUserKey)
	if !ok || raw == "" {
		return nil
	}

	var user profile.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Warn().Err(err).Msg("cached user corrupt, treating as absent")
		return nil
	}
	return &user
}

// DisplayName resolves the best available human-readable name, empty when
// nothing usable is cached. The UI degrades gracefully, it never errors.
func (m *Manager) DisplayName() string {
	return m.GetUser().DisplayName()
}

// Age derives the user's age in whole years from the cached date of birth.
func (m *Manager) Age() (int, bool) {
	user := m.GetUser()
	if user == nil {
		return 0, false
	}
	return user.Age(m.nowTime())
}

// ValidateSession checks that the cached session is still valid against the
// remote API, at most once per freshness window. Concurrent callers share a
// single in-flight request and observe the same outcome. Any failure -
// missing token, non-2xx, network error, malformed body - collapses to
// false with the session cleared; no error type escapes this boundary.
func (m *Manager) ValidateSession(ctx context.Context) bool {
	token := m.GetToken()
	if token == "" {
		m.Clear()
		return false
	}

	m.mu.Lock()
	fresh := !m.lastValidated.IsZero() && m.nowTime().Sub(m.lastValidated) < freshnessWindow
	m.mu.Unlock()
	if fresh && m.GetUser() != nil {
		return true
	}

	// singleflight clears the in-flight marker before the result is
	// delivered, so a failed attempt never blocks the next one.
	v, _, _ := m.flight.Do(validateFlightKey, func() (interface{}, error) {
		return m.revalidate(ctx), nil
	})
	return v.(bool)
}

func (m *Manager) revalidate(ctx context.Context) bool {
	fresh, err := m.api.Me(ctx)
	if err != nil || fresh == nil {
		log.Debug().Err(err).Msg("session validation failed, clearing session")
		m.Clear()
		return false
	}

	m.SetUser(fresh)
	if fresh.Token != "" {
		m.SetToken(fresh.Token)
	}

	m.mu.Lock()
	m.lastValidated = m.nowTime()
	m.mu.Unlock()
	return true
}

// RefreshUser unconditionally re-fetches the profile and merges fresh
// server fields over the cached ones. Unlike ValidateSession a failure does
// not clear the session; the caller gets nil and keeps whatever was cached.
func (m *Manager) RefreshUser(ctx context.Context) *profile.User {
	fresh, err := m.api.Me(ctx)
	if err != nil || fresh == nil {
		log.Debug().Err(err).Msg("profile refresh failed, keeping cached profile")
		return nil
	}

	merged := profile.Merge(fresh, m.GetUser())
	m.SetUser(merged)
	if fresh.Token != "" {
		m.SetToken(fresh.Token)
	}
	return merged
}

// Establish persists a freshly authenticated session from a login or
// register response and stamps the freshness timer; the server response
// itself proves validity, no extra round-trip is needed.
func (m *Manager) Establish(user *profile.User) {
	if user == nil {
		return
	}
	if user.Token != "" {
		m.SetToken(user.Token)
	}
	m.SetUser(user)
	m.SetAuthenticated(true)
	m.MarkValidatedNow()
}

// MarkValidatedNow resets the freshness timer without a network call.
func (m *Manager) MarkValidatedNow() {
	m.mu.Lock()
	m.lastValidated = m.nowTime()
	m.mu.Unlock()
}

// Clear removes all three session keys and resets the validation state.
func (m *Manager) Clear() {
	for _, key := range []string{StorageAuthKey, StorageUserKey, StorageTokenKey} {
		if err := m.store.Delete(key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("clearing session key failed")
		}
	}
	m.mu.Lock()
	m.lastValidated = time.Time{}
	m.mu.Unlock()
}

// TokenExpiry reports the exp claim of the cached bearer token, when the
// token is a JWT carrying one. The claim is read without signature
// verification and is used for display only; it never gates validation.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	raw := m.GetToken()
	if raw == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
