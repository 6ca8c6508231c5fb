package coachcontext

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalcoach/coach-api/internal/app/targets"
	"github.com/vitalcoach/coach-api/internal/domain"
)

var now = time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)

func fullInput() Input {
	p := domain.Profile{
		Name:      "Sam",
		Sex:       domain.SexMale,
		Birthdate: time.Date(1994, time.January, 15, 0, 0, 0, 0, time.UTC),
		HeightCm:  180,
		WeightKg:  80,
		Goal:      domain.GoalFatLoss,
		Activity:  domain.ActivityModerate,
		Diet:      domain.DietPlantBased,
		Allergies: []string{"peanuts", "shellfish"},
		Injuries:  []string{"left knee"},
		Equipment: []string{"kettlebell"},
	}
	return Input{
		Profile: p,
		Targets: targets.Calculate(p, now),
		Advanced: domain.AdvancedProfile{
			BloodType:          "O+",
			Chronotype:         domain.ChronotypeOwl,
			ReproductiveStatus: domain.ReproductivePostpartum,
			KnownConditions:    []string{"asthma"},
			Supplements:        []string{"vitamin D"},
			FoodDislikes:       []string{"olives"},
			BudgetNotes:        "tight",
		},
		Notes: "  slept badly this week  ",
		Now:   now,
	}
}

func TestBuild_FullOrder(t *testing.T) {
	t.Parallel()

	got := Build(fullInput())
	want := []string{
		"User profile:",
		"- Profile: Sam, 30 years old, male",
		"- Body: 180 cm, 80 kg, BMI 24.7",
		"- Goal: fat loss; Diet: plant-based; Activity: moderate",
		"- Allergies: peanuts, shellfish",
		"- Injuries: left knee",
		"- Equipment: kettlebell",
		"- Chronotype: owl",
		"- Blood type: O+",
		"- Pregnancy/postpartum: postpartum",
		"- Known conditions: asthma",
		"- Supplements: vitamin D",
		"- Food dislikes: olives",
		"- Budget: tight",
		"- Targets: 2207 kcal, protein 176 g, carbs 238 g, fat 61 g, water 3300 ml, sleep 8.0 h, resting HR 70 bpm, max HR 190 bpm",
		"- Notes: slept badly this week",
		"",
	}
	require.True(t, strings.HasPrefix(got, strings.Join(want, "\n")), "got:\n%s", got)
	assert.True(t, strings.HasSuffix(got, Guardrails))
}

func TestBuild_OmitsEmptySections(t *testing.T) {
	t.Parallel()

	in := fullInput()
	in.Profile.Allergies = nil
	in.Profile.Injuries = []string{"  "}
	in.Profile.Equipment = []string{}
	in.Advanced = domain.AdvancedProfile{ReproductiveStatus: domain.ReproductiveNone}
	in.Targets.RestingHeartRate = nil
	in.Targets.MaxHeartRate = nil
	in.Notes = "   "

	got := Build(in)
	for _, absent := range []string{"Allergies", "Injuries", "Equipment", "Chronotype", "Blood type", "Pregnancy", "Notes:", "HR"} {
		assert.NotContains(t, got, absent)
	}
	assert.NotContains(t, got, "- \n")
	assert.NotContains(t, got, ": \n")

	body := strings.TrimSuffix(got, Guardrails)
	assert.Equal(t, 1, strings.Count(body, "\n\n"), "only the guardrail separator is blank")
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	in := fullInput()
	first := Build(in)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Build(in))
	}
}

func TestBuild_NotesBoundedAt2000(t *testing.T) {
	t.Parallel()

	in := fullInput()
	in.Notes = strings.Repeat("é", 5000)

	var notesLine string
	for _, line := range strings.Split(Build(in), "\n") {
		if strings.HasPrefix(line, NotesLabel) {
			notesLine = line
		}
	}
	require.NotEmpty(t, notesLine)
	assert.Equal(t, MaxNotesRunes, utf8.RuneCountInString(strings.TrimPrefix(notesLine, NotesLabel)))
	assert.Equal(t, utf8.RuneCountInString(NotesLabel)+MaxNotesRunes, utf8.RuneCountInString(notesLine))
}

func TestTruncateNotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", TruncateNotes("  short \n"))
	assert.Equal(t, MaxNotesRunes, utf8.RuneCountInString(TruncateNotes(strings.Repeat("a", MaxNotesRunes+1))))
}
