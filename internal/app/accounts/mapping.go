package accounts

import (
	"strings"
	"time"
	"unicode"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

func validation(msg string, details map[string]any) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: msg,
		Details: details,
	}
}

func setRequired[T any](dst **T, in Optional[T], field string, details map[string]any) {
	if !in.IsSpecified() {
		return
	}
	if in.IsNull() {
		details[field] = "cannot be null"
		return
	}
	v := in.Value()
	*dst = &v
}

func setList(dst *[]string, in Optional[[]string]) {
	if !in.IsSpecified() {
		return
	}
	if in.IsNull() {
		*dst = nil
		return
	}
	*dst = domain.NormalizeList(in.Value())
}

func setString(dst *string, in Optional[string]) {
	if !in.IsSpecified() {
		return
	}
	if in.IsNull() {
		*dst = ""
		return
	}
	*dst = domain.NormalizeHumanName(in.Value())
}

// effectiveProfile overlays the stored attributes on the defaults.
func effectiveProfile(rec profilerepo.Record, now time.Time) domain.Profile {
	p := domain.DefaultProfile(now)
	if rec.Name != nil {
		p.Name = *rec.Name
	}
	if rec.Sex != nil {
		p.Sex = *rec.Sex
	}
	if rec.Birthdate != nil {
		p.Birthdate = *rec.Birthdate
	}
	if rec.HeightCm != nil {
		p.HeightCm = *rec.HeightCm
	}
	if rec.WeightKg != nil {
		p.WeightKg = *rec.WeightKg
	}
	if rec.Goal != nil {
		p.Goal = *rec.Goal
	}
	if rec.Activity != nil {
		p.Activity = *rec.Activity
	}
	if rec.Diet != nil {
		p.Diet = *rec.Diet
	}
	p.Allergies = rec.Allergies
	p.Injuries = rec.Injuries
	p.Equipment = rec.Equipment
	return p.Normalized()
}

func toStored(rec profilerepo.Record) StoredProfile {
	return StoredProfile{
		UserID:    rec.UserID,
		Name:      rec.Name,
		Sex:       rec.Sex,
		Birthdate: rec.Birthdate,
		HeightCm:  rec.HeightCm,
		WeightKg:  rec.WeightKg,
		Goal:      rec.Goal,
		Activity:  rec.Activity,
		Diet:      rec.Diet,
		Allergies: domain.NormalizeList(rec.Allergies),
		Injuries:  domain.NormalizeList(rec.Injuries),
		Equipment: domain.NormalizeList(rec.Equipment),
		Advanced:  rec.Advanced,
		Targets:   rec.Targets,
		UpdatedAt: rec.UpdatedAt,
	}
}

func toDomainAnswers(rows []profilerepo.Answer) []domain.OnboardingAnswer {
	out := make([]domain.OnboardingAnswer, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.OnboardingAnswer{QuestionKey: r.QuestionKey, Answer: r.Answer})
	}
	return out
}

// snakeCase maps domain field names (heightCm) to wire names (height_cm).
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
