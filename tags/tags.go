package tags

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/heartbeat-sense/heartbeat-go/measure"
	"github.com/heartbeat-sense/heartbeat-go/store"
)

// storageKey holds the slot-to-label map in the persisted store.
const storageKey = "hb_activity_tags"

// Store caches user-assigned activity labels per half-hour slot, used when
// the server has no activity linkage for a slot.
type Store struct {
	kv store.Store
}

func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

// SlotKey is the stable identifier of a half-hour slot.
func SlotKey(slotStart time.Time) string {
	return slotStart.UTC().Format(time.RFC3339)
}

// Load returns the persisted label map. A corrupt persisted value falls
// back to an empty map with a logged diagnostic; Load never fails.
func (s *Store) Load() map[string]string {
	labels := make(map[string]string)

	raw, ok := s.kv.Get(storageKey)
	if !ok || raw == "" {
		return labels
	}

	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		log.Warn().Err(err).Msg("activity tags corrupt, using empty map")
		return make(map[string]string)
	}
	return labels
}

// Save writes the full label map.
func (s *Store) Save(labels map[string]string) error {
	blob, err := json.Marshal(labels)
	if err != nil {
		return errors.Wrap(err, "[tags.Save] Marshal")
	}
	if err := s.kv.Set(storageKey, string(blob)); err != nil {
		return errors.Wrap(err, "[tags.Save] Set")
	}
	return nil
}

// Assign records a local label for a slot. An empty label removes the
// assignment.
func (s *Store) Assign(slotStart time.Time, label string) error {
	labels := s.Load()
	key := SlotKey(slotStart)
	if label == "" {
		delete(labels, key)
	} else {
		labels[key] = label
	}
	return s.Save(labels)
}

// Apply overlays locally assigned labels onto computed slots, but only
// where the server supplied no activity; a server-side title always wins.
func (s *Store) Apply(slots []measure.Slot) []measure.Slot {
	labels := s.Load()
	if len(labels) == 0 {
		return slots
	}

	for i := range slots {
		if slots[i].ActivityLabel != measure.NoActivityLabel {
			continue
		}
		if label, ok := labels[SlotKey(slots[i].SlotStart)]; ok {
			slots[i].ActivityLabel = label
		}
	}
	return slots
}
