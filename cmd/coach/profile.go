package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vitalcoach/coach-api/internal/domain"
)

type profileView struct {
	Name      string   `yaml:"name,omitempty"`
	Sex       string   `yaml:"sex"`
	Birthdate string   `yaml:"birthdate"`
	Age       int      `yaml:"age"`
	HeightCm  float64  `yaml:"height_cm"`
	WeightKg  float64  `yaml:"weight_kg"`
	BMI       float64  `yaml:"bmi"`
	Goal      string   `yaml:"goal"`
	Activity  string   `yaml:"activity"`
	Diet      string   `yaml:"diet"`
	Allergies []string `yaml:"allergies,omitempty"`
	Injuries  []string `yaml:"injuries,omitempty"`
	Equipment []string `yaml:"equipment,omitempty"`
}

type advancedView struct {
	BloodType          string   `yaml:"blood_type,omitempty"`
	Chronotype         string   `yaml:"chronotype,omitempty"`
	ReproductiveStatus string   `yaml:"reproductive_status,omitempty"`
	KnownConditions    []string `yaml:"known_conditions,omitempty"`
	Supplements        []string `yaml:"supplements,omitempty"`
	FoodDislikes       []string `yaml:"food_dislikes,omitempty"`
	BudgetNotes        string   `yaml:"budget_notes,omitempty"`
}

func (a *app) printYAML(v any) error {
	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the local profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the profile and advanced profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.repo.Profile()
			adv := a.repo.Advanced()
			return a.printYAML(map[string]any{
				"profile": profileView{
					Name:      p.Name,
					Sex:       string(p.Sex),
					Birthdate: p.Birthdate.Format(time.DateOnly),
					Age:       p.AgeAt(a.clk.Now()),
					HeightCm:  p.HeightCm,
					WeightKg:  p.WeightKg,
					BMI:       float64(int(p.BMI()*10+0.5)) / 10,
					Goal:      string(p.Goal),
					Activity:  string(p.Activity),
					Diet:      string(p.Diet),
					Allergies: p.Allergies,
					Injuries:  p.Injuries,
					Equipment: p.Equipment,
				},
				"advanced": advancedView{
					BloodType:          adv.BloodType,
					Chronotype:         string(adv.Chronotype),
					ReproductiveStatus: string(adv.ReproductiveStatus),
					KnownConditions:    adv.KnownConditions,
					Supplements:        adv.Supplements,
					FoodDislikes:       adv.FoodDislikes,
					BudgetNotes:        adv.BudgetNotes,
				},
			})
		},
	}

	var (
		name, sex, birthdate, goal, activity, diet string
		height, weight                             float64
		allergies, injuries, equipment             []string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change profile fields; targets are recomputed unless overridden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			p := a.repo.Profile()
			if f.Changed("name") {
				p.Name = name
			}
			if f.Changed("sex") {
				p.Sex = domain.Sex(sex)
			}
			if f.Changed("birthdate") {
				t, err := time.Parse(time.DateOnly, birthdate)
				if err != nil {
					return fmt.Errorf("--birthdate must be YYYY-MM-DD: %w", err)
				}
				p.Birthdate = t
			}
			if f.Changed("height") {
				p.HeightCm = height
			}
			if f.Changed("weight") {
				p.WeightKg = weight
			}
			if f.Changed("goal") {
				p.Goal = domain.Goal(goal)
			}
			if f.Changed("activity") {
				p.Activity = domain.ActivityLevel(activity)
			}
			if f.Changed("diet") {
				p.Diet = domain.Diet(diet)
			}
			if f.Changed("allergies") {
				p.Allergies = allergies
			}
			if f.Changed("injuries") {
				p.Injuries = injuries
			}
			if f.Changed("equipment") {
				p.Equipment = equipment
			}

			t, err := a.repo.UpdateProfile(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Profile saved.")
			return a.printTargets(t)
		},
	}
	f := set.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&sex, "sex", "", "male, female or other")
	f.StringVar(&birthdate, "birthdate", "", "YYYY-MM-DD")
	f.Float64Var(&height, "height", 0, "height in cm")
	f.Float64Var(&weight, "weight", 0, "weight in kg")
	f.StringVar(&goal, "goal", "", "fatLoss, maintain, muscleGain, recomposition, performance or longevity")
	f.StringVar(&activity, "activity", "", "sedentary, light, moderate, high or athlete")
	f.StringVar(&diet, "diet", "", "balanced, plantBased, lowCarb, highProtein, mediterranean or vegetarian")
	f.StringSliceVar(&allergies, "allergies", nil, "comma-separated allergies (empty clears)")
	f.StringSliceVar(&injuries, "injuries", nil, "comma-separated injuries (empty clears)")
	f.StringSliceVar(&equipment, "equipment", nil, "comma-separated equipment (empty clears)")

	cmd.AddCommand(show, set)
	return cmd
}

func newAdvancedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advanced",
		Short: "Edit the advanced profile",
	}

	var (
		bloodType, chronotype, reproductive, budget string
		conditions, supplements, dislikes           []string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Change advanced profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			adv := a.repo.Advanced()
			if f.Changed("blood-type") {
				adv.BloodType = bloodType
			}
			if f.Changed("chronotype") {
				adv.Chronotype = domain.Chronotype(chronotype)
			}
			if f.Changed("reproductive-status") {
				adv.ReproductiveStatus = domain.ReproductiveStatus(reproductive)
			}
			if f.Changed("conditions") {
				adv.KnownConditions = conditions
			}
			if f.Changed("supplements") {
				adv.Supplements = supplements
			}
			if f.Changed("dislikes") {
				adv.FoodDislikes = dislikes
			}
			if f.Changed("budget") {
				adv.BudgetNotes = budget
			}
			if err := a.repo.SaveAdvanced(cmd.Context(), adv); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Advanced profile saved.")
			return nil
		},
	}
	f := set.Flags()
	f.StringVar(&bloodType, "blood-type", "", "blood type, e.g. A+")
	f.StringVar(&chronotype, "chronotype", "", "lark, intermediate or owl")
	f.StringVar(&reproductive, "reproductive-status", "", "none, pregnant or postpartum")
	f.StringSliceVar(&conditions, "conditions", nil, "comma-separated known conditions")
	f.StringSliceVar(&supplements, "supplements", nil, "comma-separated supplements")
	f.StringSliceVar(&dislikes, "dislikes", nil, "comma-separated food dislikes")
	f.StringVar(&budget, "budget", "", "free-text budget notes")

	cmd.AddCommand(set)
	return cmd
}
