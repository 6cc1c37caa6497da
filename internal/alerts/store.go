package alerts

import (
	"sync"
	"time"

	"github.com/carelink/clinic-alerts/pkg/types"
)

// Store holds the in-memory alert collections. It is safe for
// concurrent use. Replacing a collection requires a generation token
// claimed before the fetch, so a slow reload that resolves after a
// newer one cannot overwrite fresher state.
type Store struct {
	mu sync.RWMutex

	holds          []*types.DosingHold
	precautions    []*types.PatientPrecaution
	facilityAlerts []*types.FacilityAlert

	holdGen       generation
	precautionGen generation
	facilityGen   generation

	lastSynced time.Time
}

// generation tracks reload ordering for one collection
type generation struct {
	claimed   uint64
	installed uint64
}

// NewStore creates an empty alert store
func NewStore() *Store {
	return &Store{}
}

// BeginHoldReload claims a generation token for a hold reload. The
// token must be handed back to ReplaceHolds.
func (s *Store) BeginHoldReload() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdGen.claimed++
	return s.holdGen.claimed
}

// ReplaceHolds installs a freshly fetched hold collection. It returns
// false when a reload claimed later has already been installed; the
// stale result is discarded and the store is unchanged.
func (s *Store) ReplaceHolds(holds []*types.DosingHold, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.holdGen.installed {
		return false
	}
	s.holdGen.installed = gen
	s.holds = copyHolds(holds)
	s.lastSynced = time.Now()
	return true
}

// BeginPrecautionReload claims a generation token for a precaution reload
func (s *Store) BeginPrecautionReload() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.precautionGen.claimed++
	return s.precautionGen.claimed
}

// ReplacePrecautions installs a freshly fetched precaution collection
func (s *Store) ReplacePrecautions(precautions []*types.PatientPrecaution, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.precautionGen.installed {
		return false
	}
	s.precautionGen.installed = gen
	s.precautions = copyPrecautions(precautions)
	s.lastSynced = time.Now()
	return true
}

// BeginFacilityReload claims a generation token for a facility alert reload
func (s *Store) BeginFacilityReload() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facilityGen.claimed++
	return s.facilityGen.claimed
}

// ReplaceFacilityAlerts installs a freshly fetched facility alert collection
func (s *Store) ReplaceFacilityAlerts(alerts []*types.FacilityAlert, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.facilityGen.installed {
		return false
	}
	s.facilityGen.installed = gen
	s.facilityAlerts = copyFacilityAlerts(alerts)
	s.lastSynced = time.Now()
	return true
}

// MergeFacilityAlert upserts the authoritative record returned by the
// registry, keyed by id. Dismissed alerts stay in the collection with
// Active false; they are never removed.
func (s *Store) MergeFacilityAlert(alert *types.FacilityAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := *alert
	merged.AffectedAreas = append([]string(nil), alert.AffectedAreas...)
	for i, existing := range s.facilityAlerts {
		if existing.ID == merged.ID {
			s.facilityAlerts[i] = &merged
			return
		}
	}
	s.facilityAlerts = append(s.facilityAlerts, &merged)
}

// Holds returns a copy of the hold collection
func (s *Store) Holds() []*types.DosingHold {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHolds(s.holds)
}

// Precautions returns a copy of the precaution collection
func (s *Store) Precautions() []*types.PatientPrecaution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPrecautions(s.precautions)
}

// FacilityAlerts returns a copy of the facility alert collection
func (s *Store) FacilityAlerts() []*types.FacilityAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFacilityAlerts(s.facilityAlerts)
}

// ActiveHoldCount counts holds whose authoritative status is active
func (s *Store) ActiveHoldCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, h := range s.holds {
		if h.Status == types.HoldStatusActive {
			count++
		}
	}
	return count
}

// LastSynced reports when any collection was last replaced
func (s *Store) LastSynced() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSynced
}

func copyHolds(in []*types.DosingHold) []*types.DosingHold {
	out := make([]*types.DosingHold, len(in))
	for i, h := range in {
		c := *h
		c.RequiresClearanceFrom = append([]types.Role(nil), h.RequiresClearanceFrom...)
		c.ClearedBy = append([]types.Clearance(nil), h.ClearedBy...)
		out[i] = &c
	}
	return out
}

func copyPrecautions(in []*types.PatientPrecaution) []*types.PatientPrecaution {
	out := make([]*types.PatientPrecaution, len(in))
	for i, p := range in {
		c := *p
		out[i] = &c
	}
	return out
}

func copyFacilityAlerts(in []*types.FacilityAlert) []*types.FacilityAlert {
	out := make([]*types.FacilityAlert, len(in))
	for i, a := range in {
		c := *a
		c.AffectedAreas = append([]string(nil), a.AffectedAreas...)
		out[i] = &c
	}
	return out
}
