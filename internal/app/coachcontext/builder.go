// Package coachcontext serializes a user's profile, targets and notes into the bounded text
// block handed to the coaching model.
//
// Output is deterministic: lines come from a fixed, ordered list of producers, and a producer
// with nothing to say emits nothing.
package coachcontext

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// MaxNotesRunes bounds the free-text notes included in the context.
const MaxNotesRunes = 2000

// NotesLabel prefixes the notes line.
const NotesLabel = "- Notes: "

// Guardrails is appended to every context.
const Guardrails = `Coaching guidelines:
- Prefer natural, food-first and lifestyle approaches before supplements or medication.
- Do not diagnose conditions or replace professional medical advice; suggest seeing a clinician when symptoms warrant it.
- Respect the listed allergies, food dislikes and diet in every recommendation.
- Do not make blood-type-based claims unless the user explicitly asks about them.
- Take pregnancy or postpartum status, chronotype and current activity level into account.`

type Input struct {
	Profile  domain.Profile
	Targets  domain.Targets
	Advanced domain.AdvancedProfile
	Notes    string
	// Now is used for age; the builder never reads the clock.
	Now time.Time
}

type producer func(in Input) []string

// producers is the fixed emission order.
var producers = []producer{
	profileLine,
	bodyLine,
	goalLine,
	listLines,
	advancedLines,
	targetsLine,
	notesLine,
}

// Build returns the context text for in.
func Build(in Input) string {
	var b strings.Builder
	b.WriteString("User profile:\n")
	for _, p := range producers {
		for _, line := range p(in) {
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	b.WriteString(Guardrails)
	return b.String()
}

// TruncateNotes trims notes and cuts them to MaxNotesRunes runes.
func TruncateNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) <= MaxNotesRunes {
		return notes
	}
	return string([]rune(notes)[:MaxNotesRunes])
}

func profileLine(in Input) []string {
	name := in.Profile.Name
	if name == "" {
		name = "User"
	}
	return []string{fmt.Sprintf("- Profile: %s, %d years old, %s", name, in.Profile.AgeAt(in.Now), in.Profile.Sex)}
}

func bodyLine(in Input) []string {
	p := in.Profile
	return []string{fmt.Sprintf("- Body: %s cm, %s kg, BMI %.1f", num(p.HeightCm), num(p.WeightKg), p.BMI())}
}

func goalLine(in Input) []string {
	p := in.Profile
	return []string{fmt.Sprintf("- Goal: %s; Diet: %s; Activity: %s", p.Goal.Label(), p.Diet.Label(), p.Activity)}
}

func listLines(in Input) []string {
	p := in.Profile
	return nonEmpty(
		joined("Allergies", p.Allergies),
		joined("Injuries", p.Injuries),
		joined("Equipment", p.Equipment),
	)
}

func advancedLines(in Input) []string {
	a := in.Advanced
	var pregnancy string
	if a.IsPregnantOrPostpartum() {
		pregnancy = "- Pregnancy/postpartum: " + string(a.ReproductiveStatus)
	}
	return nonEmpty(
		labeled("Chronotype", string(a.Chronotype)),
		labeled("Blood type", a.BloodType),
		pregnancy,
		joined("Known conditions", a.KnownConditions),
		joined("Supplements", a.Supplements),
		joined("Food dislikes", a.FoodDislikes),
		labeled("Budget", a.BudgetNotes),
	)
}

func targetsLine(in Input) []string {
	t := in.Targets
	line := fmt.Sprintf("- Targets: %d kcal, protein %d g, carbs %d g, fat %d g, water %d ml, sleep %.1f h",
		t.TargetCalories, t.ProteinG, t.CarbsG, t.FatG, t.HydrationMl, t.SleepHours)
	if t.RestingHeartRate != nil {
		line += fmt.Sprintf(", resting HR %d bpm", *t.RestingHeartRate)
	}
	if t.MaxHeartRate != nil {
		line += fmt.Sprintf(", max HR %d bpm", *t.MaxHeartRate)
	}
	return []string{line}
}

func notesLine(in Input) []string {
	notes := TruncateNotes(in.Notes)
	if notes == "" {
		return nil
	}
	return []string{NotesLabel + notes}
}

func labeled(label, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	return "- " + label + ": " + v
}

func joined(label string, xs []string) string {
	return labeled(label, strings.Join(domain.NormalizeList(xs), ", "))
}

func nonEmpty(lines ...string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
