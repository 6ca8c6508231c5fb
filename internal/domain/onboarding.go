package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Onboarding question keys whose answers enrich the AdvancedProfile.
const (
	AnswerBloodType          = "blood_type"
	AnswerChronotype         = "chronotype"
	AnswerReproductiveStatus = "reproductive_status"
	AnswerKnownConditions    = "known_conditions"
	AnswerSupplements        = "supplements"
	AnswerFoodDislikes       = "food_dislikes"
	AnswerBudgetNotes        = "budget_notes"
)

// MaxAnswerLength bounds a single onboarding answer, in runes.
const MaxAnswerLength = 2000

// ApplyOnboardingAnswers overlays recognized answers onto a. Blank answers and values outside an
// enum are skipped so they never clear a known field. List answers are comma separated.
func ApplyOnboardingAnswers(a AdvancedProfile, answers []OnboardingAnswer) AdvancedProfile {
	out := a
	for _, ans := range answers {
		v := NormalizeHumanName(ans.Answer)
		if v == "" {
			continue
		}
		switch strings.TrimSpace(ans.QuestionKey) {
		case AnswerBloodType:
			out.BloodType = v
		case AnswerChronotype:
			if c := Chronotype(strings.ToLower(v)); c.Valid() {
				out.Chronotype = c
			}
		case AnswerReproductiveStatus:
			if r := ReproductiveStatus(strings.ToLower(v)); r.Valid() {
				out.ReproductiveStatus = r
			}
		case AnswerKnownConditions:
			out.KnownConditions = splitAnswer(v)
		case AnswerSupplements:
			out.Supplements = splitAnswer(v)
		case AnswerFoodDislikes:
			out.FoodDislikes = splitAnswer(v)
		case AnswerBudgetNotes:
			out.BudgetNotes = v
		}
	}
	return out.Normalized()
}

func splitAnswer(v string) []string {
	return NormalizeList(strings.Split(v, ","))
}

// ValidateOnboardingAnswers trims keys and answers and reports every invalid row by index.
func ValidateOnboardingAnswers(in []OnboardingAnswer) ([]OnboardingAnswer, map[string]any) {
	problems := map[string]any{}
	if len(in) == 0 {
		problems["answers"] = "must contain at least one answer"
		return nil, problems
	}
	out := make([]OnboardingAnswer, 0, len(in))
	seen := make(map[string]int, len(in))
	for i, a := range in {
		key := strings.TrimSpace(a.QuestionKey)
		field := fmt.Sprintf("answers[%d]", i)
		switch {
		case key == "":
			problems[field+".question_key"] = "must be non-empty"
		case seen[key] > 0:
			problems[field+".question_key"] = fmt.Sprintf("duplicates answers[%d]", seen[key]-1)
		}
		if key != "" && seen[key] == 0 {
			seen[key] = i + 1
		}
		ans := strings.TrimSpace(a.Answer)
		if utf8.RuneCountInString(ans) > MaxAnswerLength {
			problems[field+".answer"] = fmt.Sprintf("must be at most %d characters", MaxAnswerLength)
		}
		out = append(out, OnboardingAnswer{QuestionKey: key, Answer: ans})
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return out, nil
}
