package domain

import (
	"encoding/json"
	"time"
)

// ActivityDomain names one of the independent activity histories.
type ActivityDomain string

const (
	DomainTraining   ActivityDomain = "training"
	DomainNutrition  ActivityDomain = "nutrition"
	DomainRecovery   ActivityDomain = "recovery"
	DomainMobility   ActivityDomain = "mobility"
	DomainPain       ActivityDomain = "pain"
	DomainBreathwork ActivityDomain = "breathwork"
	DomainAppearance ActivityDomain = "appearance"
)

// ActivityDomains is the canonical domain order. Anything that iterates domains uses this slice.
var ActivityDomains = []ActivityDomain{
	DomainTraining,
	DomainNutrition,
	DomainRecovery,
	DomainMobility,
	DomainPain,
	DomainBreathwork,
	DomainAppearance,
}

// Label is the plural record name used when activity is rendered for the coach.
func (d ActivityDomain) Label() string {
	switch d {
	case DomainTraining:
		return "training sessions"
	case DomainNutrition:
		return "meals"
	case DomainRecovery:
		return "recovery logs"
	case DomainMobility:
		return "mobility sessions"
	case DomainPain:
		return "pain checks"
	case DomainBreathwork:
		return "breathwork sessions"
	case DomainAppearance:
		return "appearance sessions"
	}
	return string(d)
}

// MaxActivityPerDomain bounds every per-domain list in a snapshot.
const MaxActivityPerDomain = 5

// ActivityRecord is an opaque domain record. Only its identity and timestamp are interpreted.
type ActivityRecord struct {
	ID         string          `json:"id"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ActivitySnapshot is a read-only, per-request view of recent activity, most recent first.
// An empty list means the domain has no recent records.
type ActivitySnapshot struct {
	TrainingSessions   []ActivityRecord `json:"trainingSessions"`
	Meals              []ActivityRecord `json:"meals"`
	RecoveryLogs       []ActivityRecord `json:"recoveryLogs"`
	MobilitySessions   []ActivityRecord `json:"mobilitySessions"`
	PainChecks         []ActivityRecord `json:"painChecks"`
	BreathworkSessions []ActivityRecord `json:"breathworkSessions"`
	AppearanceSessions []ActivityRecord `json:"appearanceSessions"`
}

// Records returns the list for d.
func (s ActivitySnapshot) Records(d ActivityDomain) []ActivityRecord {
	switch d {
	case DomainTraining:
		return s.TrainingSessions
	case DomainNutrition:
		return s.Meals
	case DomainRecovery:
		return s.RecoveryLogs
	case DomainMobility:
		return s.MobilitySessions
	case DomainPain:
		return s.PainChecks
	case DomainBreathwork:
		return s.BreathworkSessions
	case DomainAppearance:
		return s.AppearanceSessions
	}
	return nil
}

// Set stores recs as the list for d. Nil is stored as an empty list.
func (s *ActivitySnapshot) Set(d ActivityDomain, recs []ActivityRecord) {
	if recs == nil {
		recs = []ActivityRecord{}
	}
	switch d {
	case DomainTraining:
		s.TrainingSessions = recs
	case DomainNutrition:
		s.Meals = recs
	case DomainRecovery:
		s.RecoveryLogs = recs
	case DomainMobility:
		s.MobilitySessions = recs
	case DomainPain:
		s.PainChecks = recs
	case DomainBreathwork:
		s.BreathworkSessions = recs
	case DomainAppearance:
		s.AppearanceSessions = recs
	}
}

// Total counts records across all domains.
func (s ActivitySnapshot) Total() int {
	n := 0
	for _, d := range ActivityDomains {
		n += len(s.Records(d))
	}
	return n
}
