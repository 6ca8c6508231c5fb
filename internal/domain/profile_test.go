package domain

import (
	"testing"
	"time"
)

func TestProfile_AgeAt_BirthdayAware(t *testing.T) {
	t.Parallel()

	p := Profile{Birthdate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)}

	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2020, time.June, 14, 23, 59, 0, 0, time.UTC), 29},
		{time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := p.AgeAt(tc.now); got != tc.want {
			t.Fatalf("AgeAt(%s)=%d, want %d", tc.now.Format(time.DateOnly), got, tc.want)
		}
	}
}

func TestProfile_Problems(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if got := DefaultProfile(now).Problems(now); len(got) != 0 {
		t.Fatalf("DefaultProfile().Problems()=%v, want none", got)
	}

	bad := DefaultProfile(now)
	bad.HeightCm = 0
	bad.WeightKg = -1
	bad.Birthdate = now.AddDate(0, 0, 1)
	bad.Sex = "unknown"
	bad.Goal = "bulk"
	got := bad.Problems(now)
	for _, k := range []string{"heightCm", "weightKg", "birthdate", "sex", "goal"} {
		if _, ok := got[k]; !ok {
			t.Fatalf("Problems() missing %q: %v", k, got)
		}
	}
	if _, ok := got["diet"]; ok {
		t.Fatalf("Problems() flagged diet: %v", got)
	}
}

func TestProfile_Normalized(t *testing.T) {
	t.Parallel()

	p := Profile{
		Name:      "  Sam   Lee ",
		Allergies: []string{" peanuts", "Peanuts", "", "  shellfish  "},
	}.Normalized()

	if p.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion=%d", p.SchemaVersion)
	}
	if p.Name != "Sam Lee" {
		t.Fatalf("Name=%q", p.Name)
	}
	if len(p.Allergies) != 2 || p.Allergies[0] != "peanuts" || p.Allergies[1] != "shellfish" {
		t.Fatalf("Allergies=%q", p.Allergies)
	}
	if p.Injuries == nil || p.Equipment == nil {
		t.Fatalf("normalized lists must not be nil")
	}
}

func TestProfile_MateriallyDiffers(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	base := DefaultProfile(now)

	same := base
	same.Name = "Renamed"
	same.Diet = DietVegetarian
	same.Allergies = []string{"gluten"}
	if base.MateriallyDiffers(same) {
		t.Fatalf("name/diet/list changes must not be material")
	}

	mutations := map[string]func(*Profile){
		"weight":    func(p *Profile) { p.WeightKg++ },
		"height":    func(p *Profile) { p.HeightCm++ },
		"sex":       func(p *Profile) { p.Sex = SexFemale },
		"activity":  func(p *Profile) { p.Activity = ActivityAthlete },
		"goal":      func(p *Profile) { p.Goal = GoalFatLoss },
		"birthdate": func(p *Profile) { p.Birthdate = p.Birthdate.AddDate(-1, 0, 0) },
	}
	for name, mutate := range mutations {
		q := base
		mutate(&q)
		if !base.MateriallyDiffers(q) {
			t.Fatalf("%s change must be material", name)
		}
	}
}

func TestProfile_BMI(t *testing.T) {
	t.Parallel()

	p := Profile{HeightCm: 200, WeightKg: 80}
	if got := p.BMI(); got != 20 {
		t.Fatalf("BMI()=%v, want 20", got)
	}
	if got := (Profile{}).BMI(); got != 0 {
		t.Fatalf("BMI() with zero height=%v, want 0", got)
	}
}

func TestActivitySnapshot_SetRecords(t *testing.T) {
	t.Parallel()

	var s ActivitySnapshot
	for i, d := range ActivityDomains {
		recs := make([]ActivityRecord, i)
		s.Set(d, recs)
	}
	for i, d := range ActivityDomains {
		if got := len(s.Records(d)); got != i {
			t.Fatalf("Records(%s) len=%d, want %d", d, got, i)
		}
	}
	if s.Total() != 21 {
		t.Fatalf("Total()=%d, want 21", s.Total())
	}

	s.Set(DomainPain, nil)
	if s.PainChecks == nil {
		t.Fatalf("Set(nil) must store an empty list")
	}
}

func TestAdvancedProfile_Problems(t *testing.T) {
	t.Parallel()

	if got := (AdvancedProfile{}).Problems(); len(got) != 0 {
		t.Fatalf("zero AdvancedProfile must be valid: %v", got)
	}
	got := AdvancedProfile{Chronotype: "night", ReproductiveStatus: "maybe"}.Problems()
	if len(got) != 2 {
		t.Fatalf("Problems()=%v, want chronotype and reproductiveStatus", got)
	}
	if !(AdvancedProfile{ReproductiveStatus: ReproductivePostpartum}).IsPregnantOrPostpartum() {
		t.Fatalf("postpartum must count")
	}
}

func TestTargets_Problems(t *testing.T) {
	t.Parallel()

	ok := Targets{TargetCalories: 2000, ProteinG: 150, CarbsG: 200, FatG: 60, HydrationMl: 2500, SleepHours: 8}
	if got := ok.Problems(); len(got) != 0 {
		t.Fatalf("Problems()=%v, want none", got)
	}
	bad := ok
	bad.TargetCalories = 0
	bad.SleepHours = 25
	zero := 0
	bad.MaxHeartRate = &zero
	if got := bad.Problems(); len(got) != 3 {
		t.Fatalf("Problems()=%v, want 3 entries", got)
	}
}
