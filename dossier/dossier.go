package dossier

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/heartbeat-sense/heartbeat-go/store"
)

// storageKey holds the dossier JSON in the persisted store.
const storageKey = "hb_dossier"

// PersonalInfo are the locally maintained body metrics.
type PersonalInfo struct {
	Height    string `json:"height"`
	Weight    string `json:"weight"`
	BloodType string `json:"bloodType"`
}

// HeartHealth are the locally maintained heart figures.
type HeartHealth struct {
	RestingRate   string `json:"restingRate"`
	MaxRate       string `json:"maxRate"`
	BloodPressure string `json:"bloodPressure"`
	LastCheck     string `json:"lastCheck"`
}

// Entry is one manually recorded measurement row.
type Entry struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Data is the personal medical dossier. It is client-local fallback data
// with a lifecycle independent of the server profile.
type Data struct {
	Personal     PersonalInfo `json:"personal"`
	Heart        HeartHealth  `json:"heart"`
	Measurements []Entry      `json:"measurements"`
}

// Defaults returns the full empty-string dossier shape, including the two
// blank measurement rows the edit form starts from.
func Defaults() Data {
	return Data{
		Measurements: []Entry{{}, {}},
	}
}

// Store persists the dossier in the shared key/value store.
type Store struct {
	kv store.Store
}

func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted dossier merged field-by-field over the
// defaults, so callers always receive a fully shaped structure. A corrupt
// persisted value falls back to defaults with a logged diagnostic; Load
// never fails.
func (s *Store) Load() Data {
	data := Defaults()

	raw, ok := s.kv.Get(storageKey)
	if !ok || raw == "" {
		return data
	}

	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Warn().Err(err).Msg("dossier data corrupt, using defaults")
		return Defaults()
	}
	if len(data.Measurements) == 0 {
		data.Measurements = Defaults().Measurements
	}
	return data
}

// Save writes the full dossier structure.
func (s *Store) Save(data Data) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "[dossier.Save] Marshal")
	}
	if err := s.kv.Set(storageKey, string(blob)); err != nil {
		return errors.Wrap(err, "[dossier.Save] Set")
	}
	return nil
}
