package domain

type Chronotype string

const (
	ChronotypeLark         Chronotype = "lark"
	ChronotypeIntermediate Chronotype = "intermediate"
	ChronotypeOwl          Chronotype = "owl"
)

func (c Chronotype) Valid() bool {
	switch c {
	case "", ChronotypeLark, ChronotypeIntermediate, ChronotypeOwl:
		return true
	}
	return false
}

// ReproductiveStatus carries the pregnancy/postpartum flag. Empty means unknown.
type ReproductiveStatus string

const (
	ReproductiveNone       ReproductiveStatus = "none"
	ReproductivePregnant   ReproductiveStatus = "pregnant"
	ReproductivePostpartum ReproductiveStatus = "postpartum"
)

func (r ReproductiveStatus) Valid() bool {
	switch r {
	case "", ReproductiveNone, ReproductivePregnant, ReproductivePostpartum:
		return true
	}
	return false
}

// AdvancedProfile holds optional enrichments. Every field is independently optional and the
// zero value is a valid, empty profile.
type AdvancedProfile struct {
	SchemaVersion int `json:"schemaVersion"`

	BloodType          string             `json:"bloodType,omitempty"`
	Chronotype         Chronotype         `json:"chronotype,omitempty"`
	ReproductiveStatus ReproductiveStatus `json:"reproductiveStatus,omitempty"`
	KnownConditions    []string           `json:"knownConditions,omitempty"`
	Supplements        []string           `json:"supplements,omitempty"`
	FoodDislikes       []string           `json:"foodDislikes,omitempty"`
	BudgetNotes        string             `json:"budgetNotes,omitempty"`
}

func DefaultAdvancedProfile() AdvancedProfile {
	return AdvancedProfile{SchemaVersion: CurrentSchemaVersion}
}

func (a AdvancedProfile) Normalized() AdvancedProfile {
	out := a
	out.SchemaVersion = CurrentSchemaVersion
	out.BloodType = NormalizeHumanName(a.BloodType)
	out.BudgetNotes = NormalizeHumanName(a.BudgetNotes)
	out.KnownConditions = nilIfEmpty(NormalizeList(a.KnownConditions))
	out.Supplements = nilIfEmpty(NormalizeList(a.Supplements))
	out.FoodDislikes = nilIfEmpty(NormalizeList(a.FoodDislikes))
	return out
}

func (a AdvancedProfile) Problems() map[string]any {
	out := map[string]any{}
	if !a.Chronotype.Valid() {
		out["chronotype"] = "must be one of lark, intermediate, owl"
	}
	if !a.ReproductiveStatus.Valid() {
		out["reproductiveStatus"] = "must be one of none, pregnant, postpartum"
	}
	return out
}

// IsPregnantOrPostpartum reports the flag the context guardrails care about.
func (a AdvancedProfile) IsPregnantOrPostpartum() bool {
	return a.ReproductiveStatus == ReproductivePregnant || a.ReproductiveStatus == ReproductivePostpartum
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
